// Package db stores the transfer ledger in SQLite.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SetupDatabase opens (creating if needed) the ledger database at dbPath and
// brings its schema up to date.
func SetupDatabase(dbPath string, logger *zap.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	needsInit := false
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		needsInit = true
	}

	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if needsInit || NeedsMigration(db) {
		logger.Info("running database migrations", zap.String("db", dbPath))
		if err := RunMigrations(dbPath); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set database pragmas: %w", err)
	}

	return db, nil
}

// dsn sets the per-connection options every pooled connection needs.
func dsn(dbPath string) string {
	return "file:" + dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}
