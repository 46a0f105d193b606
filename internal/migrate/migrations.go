// Package migrate brings the workspace database up to the current schema.
// Migrations are SQL files embedded under sql/, named NNNN_description.sql;
// the whole upgrade runs in one transaction so a failed step leaves
// schema_version untouched.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
)

//go:embed sql/*.sql
var schemaFS embed.FS

type step struct {
	version int
	name    string
	ddl     string
}

func steps() ([]step, error) {
	entries, err := schemaFS.ReadDir("sql")
	if err != nil {
		return nil, err
	}
	out := make([]step, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var v int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &v); err != nil {
			return nil, fmt.Errorf("migration %s: name must start with a version number", entry.Name())
		}
		ddl, err := schemaFS.ReadFile("sql/" + entry.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, step{version: v, name: entry.Name(), ddl: string(ddl)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// currentVersion reads the applied schema version, initializing the tracking
// row on a fresh database.
func currentVersion(tx *sql.Tx) (int, error) {
	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version(version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema_version: %w", err)
	}
	var v int
	err := tx.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&v)
	if err == sql.ErrNoRows {
		if _, err := tx.Exec(`INSERT INTO schema_version(version) VALUES (0)`); err != nil {
			return 0, fmt.Errorf("init schema_version: %w", err)
		}
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return v, nil
}

func apply(tx *sql.Tx, s step) error {
	if _, err := tx.Exec(s.ddl); err != nil {
		return fmt.Errorf("migration %s: %w", s.name, err)
	}
	if _, err := tx.Exec(`UPDATE schema_version SET version=?`, s.version); err != nil {
		return fmt.Errorf("migration %s: record version: %w", s.name, err)
	}
	return nil
}

// Migrate applies any pending schema steps in version order.
func Migrate(db *sql.DB) error {
	all, err := steps()
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	v, err := currentVersion(tx)
	if err != nil {
		return err
	}
	for _, s := range all {
		if s.version <= v {
			continue
		}
		if err := apply(tx, s); err != nil {
			return err
		}
		v = s.version
	}
	return tx.Commit()
}
