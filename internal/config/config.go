// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/qae/internal/modules/circuits"
	"github.com/aristath/qae/internal/modules/classifier"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the model store, plots and backups (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	Classifier ClassifierSettings
	Dataset    DatasetSettings
	Backup     BackupConfig

	MaintenanceSchedule string        // cron spec with seconds field
	JobRetention        time.Duration // finished training jobs are pruned after this
}

// ClassifierSettings are the training defaults, overridable per request.
type ClassifierSettings struct {
	Ansatz        int
	Reps          int
	LabelQubits   int
	Shots         int
	Optimizer     string
	MaxIterations int
	Seed          int64
}

// DatasetSettings drive the offline training binary.
type DatasetSettings struct {
	Path          string // CSV file; empty uses a synthetic dataset
	Classes       []int  // classes to keep, empty keeps all
	TrainSize     int
	TestSize      int // 0 uses every sample not in the training split
	PCAComponents int // 0 disables PCA
	ModelName     string
}

// BackupConfig holds S3-compatible backup settings
type BackupConfig struct {
	Enabled         bool
	Schedule        string
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	RetentionDays   int
}

// Load reads configuration from the environment and an optional .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("QAE_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	classes, err := parseIntList(getEnv("QAE_CLASSES", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid QAE_CLASSES: %w", err)
	}

	defaults := classifier.DefaultConfig()
	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("GO_PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Classifier: ClassifierSettings{
			Ansatz:        getEnvAsInt("QAE_ANSATZ", int(defaults.Ansatz)),
			Reps:          getEnvAsInt("QAE_REPS", defaults.Reps),
			LabelQubits:   getEnvAsInt("QAE_LABEL_QUBITS", defaults.LabelQubits),
			Shots:         getEnvAsInt("QAE_SHOTS", defaults.Shots),
			Optimizer:     getEnv("QAE_OPTIMIZER", string(defaults.Optimizer)),
			MaxIterations: getEnvAsInt("QAE_MAX_ITERATIONS", defaults.MaxIterations),
			Seed:          getEnvAsInt64("QAE_SEED", int64(defaults.Seed)),
		},
		Dataset: DatasetSettings{
			Path:          getEnv("QAE_DATASET_PATH", ""),
			Classes:       classes,
			TrainSize:     getEnvAsInt("QAE_TRAIN_SIZE", 75),
			TestSize:      getEnvAsInt("QAE_TEST_SIZE", 50),
			PCAComponents: getEnvAsInt("QAE_PCA_COMPONENTS", 0),
			ModelName:     getEnv("QAE_MODEL_NAME", "qae"),
		},
		Backup: BackupConfig{
			Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
			Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
			Bucket:          getEnv("BACKUP_BUCKET", ""),
			Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
			Region:          getEnv("BACKUP_REGION", "auto"),
			AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "0 0 * * * *"),
		JobRetention:        time.Duration(getEnvAsInt("QAE_JOB_RETENTION_HOURS", 24)) * time.Hour,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid GO_PORT %d", c.Port)
	}
	if c.Classifier.Seed < 0 {
		return fmt.Errorf("QAE_SEED must not be negative, got %d", c.Classifier.Seed)
	}
	if err := c.ClassifierConfig().Validate(); err != nil {
		return fmt.Errorf("invalid classifier configuration: %w", err)
	}
	if c.Dataset.TrainSize <= 0 {
		return fmt.Errorf("QAE_TRAIN_SIZE must be positive, got %d", c.Dataset.TrainSize)
	}
	if c.Dataset.TestSize < 0 {
		return fmt.Errorf("QAE_TEST_SIZE must not be negative, got %d", c.Dataset.TestSize)
	}
	if c.Dataset.PCAComponents < 0 {
		return fmt.Errorf("QAE_PCA_COMPONENTS must not be negative, got %d", c.Dataset.PCAComponents)
	}
	if c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("BACKUP_BUCKET is required when BACKUP_ENABLED is set")
	}
	return nil
}

// ClassifierConfig converts the classifier settings
func (c *Config) ClassifierConfig() classifier.Config {
	return classifier.Config{
		Ansatz:        circuits.AnsatzVariant(c.Classifier.Ansatz),
		Reps:          c.Classifier.Reps,
		LabelQubits:   c.Classifier.LabelQubits,
		Shots:         c.Classifier.Shots,
		Optimizer:     classifier.OptimizerMethod(c.Classifier.Optimizer),
		MaxIterations: c.Classifier.MaxIterations,
		Seed:          uint64(c.Classifier.Seed),
	}
}

// DatabasePath returns the model store location
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "qae.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// parseIntList parses "0,2,4,6". An empty string yields nil.
func parseIntList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
