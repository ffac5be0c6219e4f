// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/bpbot/internal/ports/secondary"
)

const (
	backupPrefix = "db_"
	backupSuffix = ".db"
	backupLayout = "2006-01-02-15-04"
)

// BackupStore implements secondary.BackupStore, writing SQLite snapshots
// into a directory.
type BackupStore struct {
	db     *sql.DB
	dir    string
	maxAge time.Duration
	logger *zap.Logger
}

// NewBackupStore creates a backup store writing into dir.
func NewBackupStore(db *sql.DB, dir string, maxAge time.Duration, logger *zap.Logger) *BackupStore {
	return &BackupStore{db: db, dir: dir, maxAge: maxAge, logger: logger}
}

// BackupName returns the file name used for a snapshot taken at t.
func BackupName(t time.Time) string {
	return backupPrefix + t.Format(backupLayout) + backupSuffix
}

// LatestOrCreate reuses the newest snapshot younger than maxAge, otherwise
// writes a new one with VACUUM INTO.
func (s *BackupStore) LatestOrCreate(ctx context.Context, now time.Time) (*secondary.BackupFile, error) {
	latest, err := s.latest()
	if err != nil {
		return nil, err
	}
	if latest != nil && now.Sub(latest.CreatedAt) < s.maxAge {
		s.logger.Info("reusing recent backup", zap.String("path", latest.Path))
		latest.Reused = true
		return latest, nil
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := BackupName(now)
	path := filepath.Join(s.dir, name)
	// VACUUM INTO refuses to overwrite
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to replace backup: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}

	s.logger.Info("backup created", zap.String("path", path))
	return &secondary.BackupFile{Path: path, Name: name, CreatedAt: now}, nil
}

// Read returns the snapshot's bytes.
func (s *BackupStore) Read(ctx context.Context, file *secondary.BackupFile) ([]byte, error) {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	return data, nil
}

// latest finds the newest well-named snapshot, or nil if there is none.
func (s *BackupStore) latest() (*secondary.BackupFile, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	var newest *secondary.BackupFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupSuffix)
		// Names carry local wall-clock time, matching BackupName(time.Now()).
		createdAt, err := time.ParseInLocation(backupLayout, stamp, time.Local)
		if err != nil {
			continue
		}
		if newest == nil || createdAt.After(newest.CreatedAt) {
			newest = &secondary.BackupFile{
				Path:      filepath.Join(s.dir, name),
				Name:      name,
				CreatedAt: createdAt,
			}
		}
	}
	return newest, nil
}

var _ secondary.BackupStore = (*BackupStore)(nil)
