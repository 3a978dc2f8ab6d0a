package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Backup copies the live database file to dest. The WAL is checkpointed
// first so the main file alone is a consistent snapshot.
func (db *DB) Backup(dest string) error {
	if _, err := db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("checkpoint before backup: %w", err)
	}

	source, err := os.Open(db.path)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return err
	}
	return destination.Sync()
}

// RunBackupLoop copies the booking database into dir every interval and
// deletes copies older than retention. It returns when ctx is cancelled.
func (db *DB) RunBackupLoop(ctx context.Context, dir string, interval, retention time.Duration, logger *zerolog.Logger) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Msg("Failed to create backup directory")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dest := filepath.Join(dir, fmt.Sprintf("bookings_%s.db", time.Now().Format("20060102_150405")))
			if err := db.Backup(dest); err != nil {
				logger.Error().Err(err).Msg("Backup failed")
			} else {
				logger.Info().Str("path", dest).Msg("Backup completed")
			}
			db.cleanupBackups(dir, retention, logger)
		}
	}
}

func (db *DB) cleanupBackups(dir string, retention time.Duration, logger *zerolog.Logger) {
	if retention <= 0 {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read backup directory")
		return
	}

	cutoff := time.Now().Add(-retention)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			logger.Info().Str("file", entry.Name()).Msg("Deleting old backup")
			os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
}
