package migrate_test

import (
	"testing"

	"dealflow/internal/db"
	"dealflow/internal/migrate"
)

func TestMigrateIsRepeatable(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("second run: %v", err)
	}
	var version int
	if err := conn.QueryRow(`SELECT version FROM schema_version`).Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version < 1 {
		t.Fatalf("expected applied schema version, got %d", version)
	}
	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single version row, got %d", count)
	}
}
