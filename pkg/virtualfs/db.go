package virtualfs

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/antibyte/retrobasic/pkg/logger"
)

// InitDB opens the SQLite database at dbPath and creates the tables.
func InitDB(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite erlaubt nur einen Schreiber
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := CreateTables(db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info(logger.AreaDatabase, "database %s ready", dbPath)
	return db, nil
}

// CreateTables ensures all required tables exist in the database.
func CreateTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS programs (
			owner TEXT NOT NULL,
			name TEXT NOT NULL COLLATE NOCASE,
			content BLOB,
			mod_time INTEGER NOT NULL,
			PRIMARY KEY (owner, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_programs_owner ON programs(owner)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}
