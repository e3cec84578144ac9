package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aristath/qae/internal/database"
	"github.com/aristath/qae/internal/events"
	"github.com/rs/zerolog"
)

const (
	backupPrefix    = "qae-backup-"
	backupSuffix    = ".tar.gz"
	timestampLayout = "2006-01-02-150405"
	metadataName    = "backup-metadata.json"

	// MinBackupsToKeep survive rotation regardless of age.
	MinBackupsToKeep = 3
)

// BackupMetadata is written next to the database snapshot in every archive.
type BackupMetadata struct {
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Database  DatabaseMetadata `json:"database"`
}

// DatabaseMetadata contains metadata about the database snapshot in the backup
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo represents a backup stored in the bucket
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
	Checksum  string    `json:"checksum,omitempty"` // of the database snapshot, known only at creation
}

// BackupService snapshots the model store and uploads it as a tar.gz archive.
type BackupService struct {
	db         *database.DB
	store      ObjectStore
	stagingDir string
	bus        *events.Bus
	log        zerolog.Logger
	now        func() time.Time
}

// NewBackupService creates a backup service staging archives under dataDir.
// bus may be nil.
func NewBackupService(db *database.DB, store ObjectStore, dataDir string, bus *events.Bus, log zerolog.Logger) *BackupService {
	return &BackupService{
		db:         db,
		store:      store,
		stagingDir: filepath.Join(dataDir, "backup-staging"),
		bus:        bus,
		log:        log.With().Str("service", "backup").Logger(),
		now:        time.Now,
	}
}

// CreateAndUploadBackup snapshots the database with VACUUM INTO, archives
// the snapshot with its metadata and uploads the archive.
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) (*BackupInfo, error) {
	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	if err := os.MkdirAll(s.stagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	workDir, err := os.MkdirTemp(s.stagingDir, "run-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	dbFilename := s.db.Name() + ".db"
	snapshotPath := filepath.Join(workDir, dbFilename)
	if err := s.db.VacuumInto(ctx, snapshotPath); err != nil {
		return nil, err
	}

	info, err := os.Stat(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	checksum, err := calculateChecksum(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum: %w", err)
	}

	timestamp := s.now().UTC()
	metadata := BackupMetadata{
		Timestamp: timestamp,
		Version:   "1",
		Database: DatabaseMetadata{
			Name:      s.db.Name(),
			Filename:  dbFilename,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		},
	}
	if err := writeMetadata(filepath.Join(workDir, metadataName), metadata); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}

	archiveName := backupPrefix + timestamp.Format(timestampLayout) + backupSuffix
	archivePath := filepath.Join(workDir, archiveName)
	if err := createArchive(archivePath, workDir, []string{dbFilename, metadataName}); err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	archiveInfo, err := archive.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	if err := s.store.Upload(ctx, archiveName, archive); err != nil {
		return nil, err
	}

	s.log.Info().
		Dur("duration", time.Since(startTime)).
		Str("archive", archiveName).
		Int64("size_bytes", archiveInfo.Size()).
		Str("checksum", checksum).
		Msg("Backup uploaded")

	return &BackupInfo{
		Filename:  archiveName,
		Timestamp: timestamp,
		SizeBytes: archiveInfo.Size(),
		Checksum:  checksum,
	}, nil
}

// ListBackups lists the backups in the bucket, newest first. Objects whose
// names do not carry a backup timestamp are skipped.
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, backupPrefix)
	if err != nil {
		return nil, err
	}

	now := s.now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		timestamp, ok := parseBackupName(obj.Key)
		if !ok {
			s.log.Warn().Str("filename", obj.Key).Msg("Failed to parse timestamp from filename")
			continue
		}
		backups = append(backups, BackupInfo{
			Filename:  obj.Key,
			Timestamp: timestamp,
			SizeBytes: obj.Size,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// RotateOldBackups deletes backups older than retentionDays, always
// keeping the newest MinBackupsToKeep. A retention of 0 keeps everything.
// It returns the number of deleted backups.
func (s *BackupService) RotateOldBackups(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) <= MinBackupsToKeep {
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, backup := range backups[MinBackupsToKeep:] {
		if !backup.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, backup.Filename); err != nil {
			s.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete old backup")
			continue
		}
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Backup rotation completed")

	return deleted, nil
}

// Run creates a backup and rotates old ones, emitting BackupCompleted.
func (s *BackupService) Run(ctx context.Context, retentionDays int) error {
	info, err := s.CreateAndUploadBackup(ctx)
	if err != nil {
		if s.bus != nil {
			s.bus.EmitError("backup", err, nil)
		}
		return err
	}

	pruned, err := s.RotateOldBackups(ctx, retentionDays)
	if err != nil {
		s.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	if s.bus != nil {
		s.bus.Emit("backup", &events.BackupCompletedData{
			Key:       info.Filename,
			SizeBytes: info.SizeBytes,
			Checksum:  info.Checksum,
			Pruned:    pruned,
		})
	}
	return nil
}

func parseBackupName(key string) (time.Time, bool) {
	if !strings.HasPrefix(key, backupPrefix) || !strings.HasSuffix(key, backupSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(key, backupPrefix), backupSuffix)
	t, err := time.Parse(timestampLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// calculateChecksum calculates SHA256 checksum of a file
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// writeMetadata writes backup metadata to a JSON file
func writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

// createArchive creates a tar.gz archive of the named files in sourceDir
func createArchive(archivePath, sourceDir string, filenames []string) (err error) {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		if cerr := archiveFile.Close(); err == nil {
			err = cerr
		}
	}()

	gzipWriter := gzip.NewWriter(archiveFile)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, name := range filenames {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, name), name); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}
	return gzipWriter.Close()
}

// addFileToArchive adds a single file to a tar archive
func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}
