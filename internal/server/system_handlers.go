package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aristath/qae/internal/database"
	"github.com/aristath/qae/internal/queue"
	"github.com/aristath/qae/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// QueueStatus reports training job counts by status
type QueueStatus interface {
	Counts() map[queue.Status]int
}

// JobRunner runs a scheduler job outside its schedule
type JobRunner interface {
	RunNow(job scheduler.Job) error
}

// SystemHandlers handles system-wide monitoring and operations
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	db        *database.DB
	queue     QueueStatus
	runner    JobRunner
	jobs      map[string]scheduler.Job
	startedAt time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	db *database.DB,
	queue QueueStatus,
	runner JobRunner,
	jobs map[string]scheduler.Job,
) *SystemHandlers {
	if jobs == nil {
		jobs = map[string]scheduler.Job{}
	}
	return &SystemHandlers{
		log:       log.With().Str("service", "system").Logger(),
		dataDir:   dataDir,
		db:        db,
		queue:     queue,
		runner:    runner,
		jobs:      jobs,
		startedAt: time.Now(),
	}
}

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status        string               `json:"status"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	CPUPercent    float64              `json:"cpu_percent"`
	MemoryPercent float64              `json:"memory_percent"`
	Jobs          map[queue.Status]int `json:"jobs"`
	LastCheck     string               `json:"last_check"`
}

// DatabaseStatsResponse represents model store statistics
type DatabaseStatsResponse struct {
	Name          string  `json:"name"`
	Path          string  `json:"path"`
	SizeMB        float64 `json:"size_mb"`
	WALSizeMB     float64 `json:"wal_size_mb"`
	PageCount     int64   `json:"page_count"`
	PageSize      int64   `json:"page_size"`
	FreelistCount int64   `json:"freelist_count"`
}

// DiskUsageResponse represents disk usage of the data directory
type DiskUsageResponse struct {
	DataDirMB   float64 `json:"data_dir_mb"`
	TotalGB     float64 `json:"total_gb"`
	FreeGB      float64 `json:"free_gb"`
	UsedPercent float64 `json:"used_percent"`
}

// GetSystemStatusSnapshot collects the current system status
func (h *SystemHandlers) GetSystemStatusSnapshot() SystemStatusResponse {
	cpuPercent, memPercent := h.getSystemStats()

	counts := map[queue.Status]int{}
	if h.queue != nil {
		counts = h.queue.Counts()
	}

	return SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Jobs:          counts,
		LastCheck:     time.Now().Format(time.RFC3339),
	}
}

// HandleSystemStatus returns system status
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.GetSystemStatusSnapshot())
}

// HandleDatabaseStats returns model store statistics
// GET /api/system/database
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		h.writeError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	stats, err := h.db.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get database stats")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, DatabaseStatsResponse{
		Name:          h.db.Name(),
		Path:          h.db.Path(),
		SizeMB:        float64(stats.SizeBytes) / 1024 / 1024,
		WALSizeMB:     float64(stats.WALSizeBytes) / 1024 / 1024,
		PageCount:     stats.PageCount,
		PageSize:      stats.PageSize,
		FreelistCount: stats.FreelistCount,
	})
}

// HandleDiskUsage returns disk usage of the data directory
// GET /api/system/disk
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	response := DiskUsageResponse{DataDirMB: h.getDirSize(h.dataDir)}

	usage, err := disk.Usage(h.dataDir)
	if err != nil {
		h.log.Warn().Err(err).Str("dir", h.dataDir).Msg("Failed to get disk usage")
	} else {
		response.TotalGB = float64(usage.Total) / 1024 / 1024 / 1024
		response.FreeGB = float64(usage.Free) / 1024 / 1024 / 1024
		response.UsedPercent = usage.UsedPercent
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListJobs lists jobs that can be triggered manually
// GET /api/system/jobs
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": names})
}

// HandleTriggerJob runs a registered job immediately
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown job: "+name)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job triggered")

	var err error
	if h.runner != nil {
		err = h.runner.RunNow(job)
	} else {
		err = job.Run()
	}
	if err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": name + " completed",
	})
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats calculates CPU and RAM usage percentages over a 100ms window
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *SystemHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
