// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/bpbot/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// Each pooled connection would otherwise see its own empty database.
	testDB.SetMaxOpenConns(1)

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedIdentity inserts a test identity on the given interface version.
func seedIdentity(t *testing.T, db *sql.DB, id int64, phone, version string) int64 {
	t.Helper()
	if phone == "" {
		phone = "+15550000000"
	}
	if version == "" {
		version = "1.0"
	}
	_, err := db.Exec("INSERT INTO identities (identity_id, phone, interface_version) VALUES (?, ?, ?)", id, phone, version)
	if err != nil {
		t.Fatalf("failed to seed identity: %v", err)
	}
	return id
}

// seedMeasurement inserts a reading with an explicit timestamp.
func seedMeasurement(t *testing.T, db *sql.DB, identityID int64, systolic, diastolic, pulse int, recordedAt string) int64 {
	t.Helper()
	res, err := db.Exec(
		"INSERT INTO measurements (identity_id, systolic, diastolic, pulse, recorded_at) VALUES (?, ?, ?, ?, ?)",
		identityID, systolic, diastolic, pulse, recordedAt,
	)
	if err != nil {
		t.Fatalf("failed to seed measurement: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}
