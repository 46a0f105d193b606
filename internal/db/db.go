// Package db owns the workspace SQLite file. All state lives under
// <workspace>/.dealflow/ so a workspace can be relocated or wiped as a unit.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	stateDir = ".dealflow"
	dbName   = "dealflow.db"
)

type Config struct {
	Workspace string
}

// EnsureWorkspace creates the workspace state directory if missing and
// returns its path.
func EnsureWorkspace(workspace string) (string, error) {
	dir := filepath.Join(workspace, stateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Path returns the database file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, stateDir, dbName)
}

// Open opens the workspace database. Foreign keys are switched on so
// tenant-scoped rows cannot outlive their org; the busy timeout covers the
// server and CLI sharing one file.
func Open(cfg Config) (*sql.DB, error) {
	if _, err := EnsureWorkspace(cfg.Workspace); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", Path(cfg.Workspace))
	return sql.Open("sqlite", dsn)
}
