package db

// SchemaSQL is the complete schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// This is the single source of truth for tests: repository tests build their
// in-memory databases from GetSchemaSQL(), so a column referenced by a
// repository but missing here fails immediately with "no such column".
//
// When adding new columns or tables:
//  1. Append an additive migration in migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Identities (one row per registered chat user)
CREATE TABLE IF NOT EXISTS identities (
	identity_id INTEGER PRIMARY KEY,
	phone TEXT NOT NULL,
	interface_version TEXT DEFAULT '1.0',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Measurements (append-only blood pressure log)
CREATE TABLE IF NOT EXISTS measurements (
	measurement_id INTEGER PRIMARY KEY AUTOINCREMENT,
	identity_id INTEGER NOT NULL,
	systolic INTEGER NOT NULL,
	diastolic INTEGER NOT NULL,
	pulse INTEGER NOT NULL,
	comment TEXT,
	recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (identity_id) REFERENCES identities(identity_id)
);

CREATE INDEX IF NOT EXISTS idx_measurements_identity_recorded ON measurements(identity_id, recorded_at);
`

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
