// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/bpbot/internal/ports/secondary"
)

// IdentityRepository implements secondary.IdentityRepository with SQLite.
type IdentityRepository struct {
	db *sql.DB
}

// NewIdentityRepository creates a new SQLite identity repository.
func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// GetByID retrieves an identity by its ID.
func (r *IdentityRepository) GetByID(ctx context.Context, id int64) (*secondary.IdentityRecord, error) {
	var (
		interfaceVersion sql.NullString
		createdAt        sql.NullTime
	)

	record := &secondary.IdentityRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT identity_id, phone, interface_version, created_at FROM identities WHERE identity_id = ?",
		id,
	).Scan(&record.ID, &record.Phone, &interfaceVersion, &createdAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("identity %d: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	record.InterfaceVersion = interfaceVersion.String
	if createdAt.Valid {
		record.CreatedAt = createdAt.Time
	}

	return record, nil
}

// Register inserts the identity if absent. The phone and created_at of an
// existing row are never touched. An empty interfaceVersion leaves the
// column default in place.
func (r *IdentityRepository) Register(ctx context.Context, id int64, phone string, interfaceVersion string) (*secondary.IdentityRecord, bool, error) {
	var (
		res sql.Result
		err error
	)
	if interfaceVersion == "" {
		res, err = r.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO identities (identity_id, phone, created_at) VALUES (?, ?, ?)",
			id, phone, timestamp(time.Now()),
		)
	} else {
		res, err = r.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO identities (identity_id, phone, interface_version, created_at) VALUES (?, ?, ?, ?)",
			id, phone, interfaceVersion, timestamp(time.Now()),
		)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to register identity: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	record, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return record, inserted == 1, nil
}

// SetInterfaceVersion updates only the version marker of one identity.
func (r *IdentityRepository) SetInterfaceVersion(ctx context.Context, id int64, version string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE identities SET interface_version = ? WHERE identity_id = ?",
		version, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set interface version: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("identity %d: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// BulkSetInterfaceVersion sets the marker on every identity.
func (r *IdentityRepository) BulkSetInterfaceVersion(ctx context.Context, version string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE identities SET interface_version = ?", version)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk set interface version: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// ListIDs returns every identity ID in ascending order.
func (r *IdentityRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT identity_id FROM identities ORDER BY identity_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// timestamp renders t the way SQLite's CURRENT_TIMESTAMP does, so values
// written by code and by column defaults sort together.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.DateTime)
}

// Ensure IdentityRepository implements the interface
var _ secondary.IdentityRepository = (*IdentityRepository)(nil)
