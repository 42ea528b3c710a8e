package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Backup writes a consistent copy of the database to dest.
func (db *DB) Backup(dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("backup %s already exists", dest)
	}
	if _, err := db.Exec(`VACUUM INTO ?`, dest); err != nil {
		return fmt.Errorf("vacuum into %s: %w", dest, err)
	}
	return nil
}

// CleanupBackups removes *.db files in dir older than retention and returns how many were deleted.
func (db *DB) CleanupBackups(dir string, retention time.Duration) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read backup directory: %w", err)
	}

	cutoff := time.Now().Add(-retention)
	deleted := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".db") {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, file.Name())); err != nil {
				db.logger.Warn().Err(err).Str("file", file.Name()).Msg("Failed to delete old backup")
				continue
			}
			deleted++
		}
	}
	return deleted, nil
}

// BackupConfig controls the periodic backup loop.
type BackupConfig struct {
	Dir       string
	Interval  time.Duration
	Retention time.Duration
}

// BackupService periodically backs up the database and prunes old copies.
type BackupService struct {
	db     *DB
	config BackupConfig
	logger zerolog.Logger
}

func NewBackupService(db *DB, cfg BackupConfig, logger zerolog.Logger) *BackupService {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 14 * 24 * time.Hour
	}
	return &BackupService{
		db:     db,
		config: cfg,
		logger: logger.With().Str("component", "backup").Logger(),
	}
}

// Start runs a backup immediately and then every interval until ctx is done.
func (s *BackupService) Start(ctx context.Context) {
	s.logger.Info().Dur("interval", s.config.Interval).Msg("Backup service started")

	if _, err := s.PerformBackup(time.Now()); err != nil {
		s.logger.Error().Err(err).Msg("Initial backup failed")
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.PerformBackup(now); err != nil {
				s.logger.Error().Err(err).Msg("Scheduled backup failed")
			}
			s.CleanupOldBackups()
		}
	}
}

// PerformBackup writes one timestamped backup and returns its path.
func (s *BackupService) PerformBackup(now time.Time) (string, error) {
	dest := filepath.Join(s.config.Dir, fmt.Sprintf("storefront_%s.db", now.Format("20060102_150405")))
	s.logger.Info().Str("path", dest).Msg("Performing database backup")

	if err := s.db.Backup(dest); err != nil {
		return "", err
	}

	s.logger.Info().Msg("Backup completed successfully")
	return dest, nil
}

// CleanupOldBackups deletes backups past retention.
func (s *BackupService) CleanupOldBackups() {
	deleted, err := s.db.CleanupBackups(s.config.Dir, s.config.Retention)
	if err != nil {
		s.logger.Error().Err(err).Msg("Backup cleanup failed")
		return
	}
	if deleted > 0 {
		s.logger.Info().Int("deleted", deleted).Msg("Cleaned up old backups")
	}
}
