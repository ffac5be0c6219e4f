package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/bpbot/internal/ports/secondary"
)

const measurementColumns = "measurement_id, identity_id, systolic, diastolic, pulse, comment, recorded_at"

// MeasurementRepository implements secondary.MeasurementRepository with SQLite.
type MeasurementRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewMeasurementRepository creates a new SQLite measurement repository.
func NewMeasurementRepository(db *sql.DB) *MeasurementRepository {
	return &MeasurementRepository{db: db, now: time.Now}
}

// Append stores a reading stamped with the current time.
func (r *MeasurementRepository) Append(ctx context.Context, m secondary.NewMeasurement) (int64, error) {
	var comment sql.NullString
	if m.Comment != nil {
		comment = sql.NullString{String: *m.Comment, Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO measurements (identity_id, systolic, diastolic, pulse, comment, recorded_at) VALUES (?, ?, ?, ?, ?, ?)",
		m.IdentityID, m.Systolic, m.Diastolic, m.Pulse, comment, timestamp(r.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to append measurement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get measurement id: %w", err)
	}
	return id, nil
}

// Recent returns at most limit readings, newest first. Readings stamped in
// the same second are ordered by insertion.
func (r *MeasurementRepository) Recent(ctx context.Context, identityID int64, limit int) ([]*secondary.MeasurementRecord, error) {
	return r.query(ctx,
		"SELECT "+measurementColumns+" FROM measurements WHERE identity_id = ? ORDER BY recorded_at DESC, measurement_id DESC LIMIT ?",
		identityID, limit,
	)
}

// All returns every reading for the identity, oldest first.
func (r *MeasurementRepository) All(ctx context.Context, identityID int64) ([]*secondary.MeasurementRecord, error) {
	return r.query(ctx,
		"SELECT "+measurementColumns+" FROM measurements WHERE identity_id = ? ORDER BY recorded_at ASC, measurement_id ASC",
		identityID,
	)
}

// Count returns the number of readings for the identity.
func (r *MeasurementRepository) Count(ctx context.Context, identityID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM measurements WHERE identity_id = ?",
		identityID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count measurements: %w", err)
	}
	return count, nil
}

// Dump returns every stored reading ordered by ID.
func (r *MeasurementRepository) Dump(ctx context.Context) ([]*secondary.MeasurementRecord, error) {
	return r.query(ctx, "SELECT "+measurementColumns+" FROM measurements ORDER BY measurement_id")
}

func (r *MeasurementRepository) query(ctx context.Context, query string, args ...any) ([]*secondary.MeasurementRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	var records []*secondary.MeasurementRecord
	for rows.Next() {
		var (
			record  secondary.MeasurementRecord
			comment sql.NullString
		)
		if err := rows.Scan(&record.ID, &record.IdentityID, &record.Systolic, &record.Diastolic, &record.Pulse, &comment, &record.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		if comment.Valid {
			c := comment.String
			record.Comment = &c
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Ensure MeasurementRepository implements the interface
var _ secondary.MeasurementRepository = (*MeasurementRepository)(nil)
