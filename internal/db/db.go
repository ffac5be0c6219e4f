package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Open opens the SQLite store at path, creating the parent directory and an
// empty database file if they do not exist yet. The pool is limited to a
// single connection so every statement runs against one writer.
func Open(path string, logger *zap.Logger) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info("database file not found, creating", zap.String("path", path))
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}

	database, err := sql.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	database.SetMaxOpenConns(1)

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return database, nil
}

// DSN builds the go-sqlite3 connection string for path.
func DSN(path string) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", "5000")
	params.Set("_journal_mode", "WAL")
	return "file:" + path + "?" + params.Encode()
}

// SQLiteVersion reports the linked SQLite library version.
func SQLiteVersion(database *sql.DB) (string, error) {
	var v string
	if err := database.QueryRow("SELECT sqlite_version()").Scan(&v); err != nil {
		return "", fmt.Errorf("failed to query sqlite version: %w", err)
	}
	return v, nil
}
