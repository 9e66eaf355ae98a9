package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migration is one versioned schema change
type migration struct {
	version int
	name    string
	sql     string
}

type migrator struct {
	store *SQLite
	files fs.FS
}

func newMigrator(s *SQLite) *migrator {
	return &migrator{store: s, files: migrationFiles}
}

func (m *migrator) run(ctx context.Context) error {
	logger := m.store.logger
	logger.Debug("Starting database migrations")

	if _, err := m.store.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	migrations, err := m.load()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	for _, mg := range migrations {
		if applied[mg.version] {
			continue
		}
		logger.Info("Applying migration", zap.Int("version", mg.version), zap.String("name", mg.name))

		err := m.store.withTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, mg.sql); err != nil {
				return fmt.Errorf("failed to execute migration SQL: %w", err)
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", mg.version, mg.name)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", mg.version, err)
		}
	}
	return nil
}

func (m *migrator) applied(ctx context.Context) (map[int]bool, error) {
	rows, err := m.store.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// load reads migrations named like 001_initial_schema.sql in version order
func (m *migrator) load() ([]migration, error) {
	entries, err := fs.Glob(m.files, "migrations/*.sql")
	if err != nil {
		return nil, err
	}

	var out []migration
	for _, p := range entries {
		content, err := fs.ReadFile(m.files, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", p, err)
		}

		filename := path.Base(p)
		var version int
		if _, err := fmt.Sscanf(filename, "%d", &version); err != nil {
			return nil, fmt.Errorf("invalid migration filename format: %s", filename)
		}
		name := strings.TrimSuffix(filename, ".sql")
		if _, rest, ok := strings.Cut(name, "_"); ok {
			name = rest
		}

		out = append(out, migration{version: version, name: name, sql: string(content)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}
