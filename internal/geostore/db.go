package geostore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// DBConfig holds database configuration.
type DBConfig struct {
	DataDir string // empty means in-memory
	DBName  string
}

// OpenDB opens the DuckDB database backing the feature store.
// With an empty DataDir the database lives in memory, which is what the
// tests use.
func OpenDB(cfg DBConfig) (*sql.DB, error) {
	if cfg.DataDir == "" {
		return sql.Open("duckdb", "")
	}

	duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
	if err := os.MkdirAll(duckdbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
	}

	name := cfg.DBName
	if name == "" {
		name = "geocrud"
	}
	dbPath := filepath.Join(duckdbDir, name+".duckdb")
	return sql.Open("duckdb", dbPath)
}
