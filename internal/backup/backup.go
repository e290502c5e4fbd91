// Package backup takes scheduled copies of the hotel data and prunes old ones.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"infinityhotel/internal/audit"
	"infinityhotel/internal/config"
	"infinityhotel/internal/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Snapshotter writes a point-in-time copy of a store to path.
type Snapshotter interface {
	BackupTo(ctx context.Context, path string) error
}

// Exporter writes a spreadsheet of the hotel state into dir.
type Exporter interface {
	ExportFile(ctx context.Context, dir string, at time.Time) (string, error)
}

type Service struct {
	cfg      config.BackupConfig
	store    Snapshotter
	ext      string
	exporter Exporter
	logger   zerolog.Logger
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewService builds a backup service. store may be nil when the storage
// backend cannot be copied to a file; ext is the extension of store copies.
// exporter may be nil to skip the spreadsheet archive.
func NewService(cfg config.BackupConfig, store Snapshotter, ext string, exporter Exporter, logger *zerolog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		ext:      ext,
		exporter: exporter,
		logger:   logger.With().Str("component", "backup").Logger(),
		now:      time.Now,
	}
}

// Start schedules backups on cfg.Schedule until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("Backup service is disabled")
		return nil
	}
	if s.store == nil && s.exporter == nil {
		return errors.New("backup enabled but nothing to back up")
	}

	c := cron.New()
	if _, err := c.AddFunc(s.cfg.Schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("parse backup schedule %q: %w", s.cfg.Schedule, err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	s.logger.Info().
		Str("schedule", s.cfg.Schedule).
		Str("dir", s.cfg.StoragePath).
		Int("retention_days", s.cfg.RetentionDays).
		Msg("Backup service started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for a running backup and stops the schedule.
func (s *Service) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info().Msg("Backup service stopped")
}

func (s *Service) run(ctx context.Context) {
	if _, err := s.PerformBackup(ctx); err != nil {
		metrics.IncBackup("error")
		s.logger.Error().Err(err).Msg("Scheduled backup failed")
		return
	}
	metrics.IncBackup("ok")
	if _, err := s.CleanupOldBackups(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to prune old backups")
	}
}

// PerformBackup writes one copy of the store and one spreadsheet, as
// configured, and returns the created paths.
func (s *Service) PerformBackup(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	at := s.now()
	var created []string

	if s.store != nil {
		path := filepath.Join(s.cfg.StoragePath, fmt.Sprintf("backup_%s%s", at.Format("20060102_150405"), s.ext))
		s.logger.Info().Str("path", path).Msg("Performing storage backup")
		if err := s.store.BackupTo(ctx, path); err != nil {
			return created, fmt.Errorf("backup store: %w", err)
		}
		created = append(created, path)
	}

	if s.exporter != nil {
		path, err := s.exporter.ExportFile(ctx, s.cfg.StoragePath, at)
		if err != nil {
			return created, fmt.Errorf("export spreadsheet: %w", err)
		}
		created = append(created, path)
	}

	s.logger.Info().Strs("files", created).Msg("Backup completed successfully")
	return created, nil
}

// CleanupOldBackups removes backup files older than the retention period and
// returns how many were deleted.
func (s *Service) CleanupOldBackups() (int, error) {
	if s.cfg.RetentionDays <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		return 0, fmt.Errorf("read backup directory: %w", err)
	}

	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !isBackupFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", entry.Name()).Msg("Deleting old backup")
			if err := os.Remove(filepath.Join(s.cfg.StoragePath, entry.Name())); err != nil {
				s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to delete old backup")
				continue
			}
			removed++
		}
	}
	return removed, nil
}

func isBackupFile(name string) bool {
	if strings.HasPrefix(name, "backup_") {
		return true
	}
	return strings.HasPrefix(name, audit.FilePrefix) && strings.HasSuffix(name, ".xlsx")
}
