package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Migration represents a database migration.
// Every Up must be additive and safe to re-run against a schema that already
// has its change (CREATE ... IF NOT EXISTS, addColumn).
type Migration struct {
	Version int
	Name    string
	Up      func(ctx context.Context, tx *sql.Tx, logger *zap.Logger) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_identities_table",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "create_measurements_table",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "index_measurements_by_identity",
		Up:      migrationV3,
	},
	{
		Version: 4,
		Name:    "add_interface_version_to_identities",
		Up:      migrationV4,
	},
	{
		Version: 5,
		Name:    "add_created_at_to_identities",
		Up:      migrationV5,
	},
}

// SchemaError reports a migration failure. The process must not serve
// traffic against a partially migrated schema.
type SchemaError struct {
	Version int
	Name    string
	Err     error
}

func (e *SchemaError) Error() string {
	if e.Version == 0 {
		return fmt.Sprintf("schema initialization failed: %v", e.Err)
	}
	return fmt.Sprintf("migration %d (%s) failed: %v", e.Version, e.Name, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// LatestVersion returns the schema version the running code expects.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// Runner brings the persisted schema up to LatestVersion.
type Runner struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRunner creates a migration runner over db.
func NewRunner(db *sql.DB, logger *zap.Logger) *Runner {
	return &Runner{db: db, logger: logger}
}

// EnsureSchema initializes or upgrades the schema. Calling it against an
// already current schema is a no-op. Every failure is a *SchemaError.
func (r *Runner) EnsureSchema(ctx context.Context) error {
	hasVersionTable, err := r.tableExists(ctx, "schema_version")
	if err != nil {
		return &SchemaError{Err: err}
	}

	if !hasVersionTable {
		hasIdentities, err := r.tableExists(ctx, "identities")
		if err != nil {
			return &SchemaError{Err: err}
		}
		if !hasIdentities {
			// Completely fresh install - create the current schema directly
			// and mark every migration as applied.
			return r.createFresh(ctx)
		}
		// Tables predate version tracking - replay every migration; each
		// one tolerates its change already being present.
		r.logger.Info("unversioned schema found, replaying migrations")
	}

	return r.runMigrations(ctx)
}

// CurrentVersion returns the highest applied migration, 0 if none.
func (r *Runner) CurrentVersion(ctx context.Context) (int, error) {
	hasVersionTable, err := r.tableExists(ctx, "schema_version")
	if err != nil {
		return 0, err
	}
	if !hasVersionTable {
		return 0, nil
	}

	var version int
	err = r.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return version, nil
}

func (r *Runner) createFresh(ctx context.Context) error {
	r.logger.Info("creating schema", zap.Int("version", LatestVersion()))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &SchemaError{Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, SchemaSQL); err != nil {
		return &SchemaError{Err: fmt.Errorf("failed to create schema: %w", err)}
	}
	if err := createVersionTable(ctx, tx); err != nil {
		return &SchemaError{Err: err}
	}
	for _, m := range migrations {
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return &SchemaError{Version: m.Version, Name: m.Name, Err: fmt.Errorf("failed to record migration: %w", err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &SchemaError{Err: fmt.Errorf("failed to commit schema: %w", err)}
	}
	return nil
}

// runMigrations executes all pending migrations, one transaction each.
func (r *Runner) runMigrations(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, versionTableSQL); err != nil {
		return &SchemaError{Err: fmt.Errorf("failed to create schema_version table: %w", err)}
	}

	var currentVersion int
	err := r.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return &SchemaError{Err: fmt.Errorf("failed to get current schema version: %w", err)}
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}
		if err := r.apply(ctx, m); err != nil {
			return &SchemaError{Version: m.Version, Name: m.Name, Err: err}
		}
	}

	return nil
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	log := r.logger.With(zap.Int("migration", m.Version), zap.String("name", m.Name))
	log.Info("running migration")

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := m.Up(ctx, tx, log); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	log.Info("migration completed")
	return nil
}

func (r *Runner) tableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to inspect table %s: %w", name, err)
	}
	return count > 0, nil
}

const versionTableSQL = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)
`

func createVersionTable(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, versionTableSQL); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// addColumn adds a column, treating "duplicate column name" as already done.
func addColumn(ctx context.Context, tx *sql.Tx, logger *zap.Logger, table, column, definition string) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "duplicate column name") {
		logger.Info("column already exists", zap.String("table", table), zap.String("column", column))
		return nil
	}
	return fmt.Errorf("failed to add %s.%s: %w", table, column, err)
}

// migrationV1 creates the base identities table. Older databases already
// carry it without the later columns.
func migrationV1(ctx context.Context, tx *sql.Tx, logger *zap.Logger) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS identities (
			identity_id INTEGER PRIMARY KEY,
			phone TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create identities table: %w", err)
	}
	return nil
}

// migrationV2 creates the measurements table with its full column set.
func migrationV2(ctx context.Context, tx *sql.Tx, logger *zap.Logger) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS measurements (
			measurement_id INTEGER PRIMARY KEY AUTOINCREMENT,
			identity_id INTEGER NOT NULL,
			systolic INTEGER NOT NULL,
			diastolic INTEGER NOT NULL,
			pulse INTEGER NOT NULL,
			comment TEXT,
			recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (identity_id) REFERENCES identities(identity_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create measurements table: %w", err)
	}
	return nil
}

func migrationV3(ctx context.Context, tx *sql.Tx, logger *zap.Logger) error {
	_, err := tx.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS idx_measurements_identity_recorded ON measurements(identity_id, recorded_at)",
	)
	if err != nil {
		return fmt.Errorf("failed to create measurements index: %w", err)
	}
	return nil
}

// migrationV4 adds the interface version marker. Existing rows read the
// baseline default.
func migrationV4(ctx context.Context, tx *sql.Tx, logger *zap.Logger) error {
	return addColumn(ctx, tx, logger, "identities", "interface_version", "TEXT DEFAULT '1.0'")
}

// migrationV5 adds created_at. SQLite rejects a non-constant default on
// ADD COLUMN, so existing rows are backfilled and new rows are stamped by
// the repository.
func migrationV5(ctx context.Context, tx *sql.Tx, logger *zap.Logger) error {
	if err := addColumn(ctx, tx, logger, "identities", "created_at", "DATETIME"); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, "UPDATE identities SET created_at = CURRENT_TIMESTAMP WHERE created_at IS NULL")
	if err != nil {
		return fmt.Errorf("failed to backfill identities.created_at: %w", err)
	}
	return nil
}
