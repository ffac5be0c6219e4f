package primary

import "context"

// AdminService defines the primary port for operator tasks run from the CLI.
type AdminService interface {
	// SetInterfaceVersion stamps version on one identity, or on all when
	// identityID is 0. Returns the number of identities updated.
	SetInterfaceVersion(ctx context.Context, version string, identityID int64) (int64, error)

	// Backup reuses or creates a database snapshot.
	Backup(ctx context.Context) (*BackupResult, error)

	// ExportCSV renders every stored measurement as CSV.
	ExportCSV(ctx context.Context) ([]byte, error)

	// Broadcast sends the upgrade notice to every identity after the
	// version was bulk-updated. Delivery is best effort.
	Broadcast(ctx context.Context) (*BroadcastResult, error)
}

// BackupResult describes the snapshot produced by Backup.
type BackupResult struct {
	Path   string
	Name   string
	Reused bool
}

// BroadcastResult counts delivery outcomes of a broadcast.
type BroadcastResult struct {
	Updated   int64
	Delivered int
	Failed    int
}
