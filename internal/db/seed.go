package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/bpbot/internal/version"
)

// SeedFixtures populates the database with development fixtures: two
// identities, one on the baseline interface version so the upgrade notice
// can be exercised, and a week of readings for the first.
func SeedFixtures(ctx context.Context, database *sql.DB, interfaceVersion string) error {
	now := time.Now().UTC()

	identities := []struct {
		id      int64
		phone   string
		version string
	}{
		{1001, "+15550001001", interfaceVersion},
		{1002, "+15550001002", version.Baseline},
	}
	for _, i := range identities {
		if _, err := database.ExecContext(ctx,
			"INSERT OR IGNORE INTO identities (identity_id, phone, interface_version, created_at) VALUES (?, ?, ?, ?)",
			i.id, i.phone, i.version, now.Format(time.DateTime),
		); err != nil {
			return fmt.Errorf("seed identities: %w", err)
		}
	}

	readings := []struct {
		systolic, diastolic, pulse int
		comment                    sql.NullString
	}{
		{122, 81, 72, sql.NullString{}},
		{135, 88, 80, sql.NullString{String: "after coffee", Valid: true}},
		{118, 76, 64, sql.NullString{}},
		{128, 84, 70, sql.NullString{String: "morning", Valid: true}},
		{141, 92, 85, sql.NullString{String: "stressful day", Valid: true}},
		{120, 80, 68, sql.NullString{}},
		{124, 79, 71, sql.NullString{}},
	}
	for n, r := range readings {
		recordedAt := now.Add(-time.Duration(len(readings)-n) * 24 * time.Hour)
		if _, err := database.ExecContext(ctx,
			"INSERT INTO measurements (identity_id, systolic, diastolic, pulse, comment, recorded_at) VALUES (?, ?, ?, ?, ?, ?)",
			identities[0].id, r.systolic, r.diastolic, r.pulse, r.comment, recordedAt.Format(time.DateTime),
		); err != nil {
			return fmt.Errorf("seed measurements: %w", err)
		}
	}

	return nil
}
