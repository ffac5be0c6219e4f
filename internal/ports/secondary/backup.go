package secondary

import (
	"context"
	"time"
)

// BackupStore defines the secondary port for database snapshots.
type BackupStore interface {
	// LatestOrCreate returns the newest snapshot if it is younger than the
	// configured max age, otherwise writes a new one.
	LatestOrCreate(ctx context.Context, now time.Time) (*BackupFile, error)

	// Read returns the snapshot's bytes.
	Read(ctx context.Context, file *BackupFile) ([]byte, error)
}

// BackupFile describes a snapshot on disk.
type BackupFile struct {
	Path      string
	Name      string
	CreatedAt time.Time
	Reused    bool
}
