package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Migration is one versioned schema change
type Migration struct {
	Version int64
	Name    string
	// Up returns the statements for the given driver
	Up func(driver string) []string
}

// Migrations lists every schema change in version order
var Migrations = []Migration{
	{Version: 1, Name: "create_sous_chefs", Up: createSousChefs},
	{Version: 2, Name: "create_recipes", Up: createRecipes},
}

func idColumn(driver string) string {
	if driver == DriverPostgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func timeColumn(driver string) string {
	if driver == DriverPostgres {
		return "TIMESTAMPTZ"
	}
	return "TIMESTAMP"
}

func createSousChefs(driver string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sous_chefs (
	id %s,
	slug VARCHAR(255) NOT NULL UNIQUE,
	name VARCHAR(255) NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	options TEXT NOT NULL,
	created %s NOT NULL,
	updated %s NOT NULL
)`, idColumn(driver), timeColumn(driver), timeColumn(driver)),
	}
}

func createRecipes(driver string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS recipes (
	id %s,
	org_id BIGINT NOT NULL,
	sous_chef_id BIGINT NOT NULL REFERENCES sous_chefs(id),
	name VARCHAR(255),
	slug VARCHAR(255) NOT NULL,
	description TEXT,
	schedule_by VARCHAR(64) NOT NULL,
	crontab VARCHAR(255),
	time_of_day VARCHAR(64),
	minutes DOUBLE PRECISION,
	status VARCHAR(64) NOT NULL,
	traceback TEXT,
	scheduled BOOLEAN NOT NULL DEFAULT FALSE,
	options TEXT NOT NULL,
	options_hash VARCHAR(64) NOT NULL,
	created %s NOT NULL,
	updated %s NOT NULL,
	UNIQUE (org_id, slug)
)`, idColumn(driver), timeColumn(driver), timeColumn(driver)),
		`CREATE INDEX IF NOT EXISTS idx_recipes_org_status ON recipes(org_id, status)`,
	}
}

// Migrate creates the schema_migrations table and applies every pending migration,
// each in its own transaction. It returns the number of migrations applied.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at %s NOT NULL
)`, timeColumn(s.driver)))
	if err != nil {
		return 0, fmt.Errorf("failed to initialize migrations table: %w", err)
	}

	applied, err := s.appliedVersions(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range Migrations {
		if applied[m.Version] {
			continue
		}
		err := s.withTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.Up(s.driver) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("%s: %w", strings.SplitN(stmt, "\n", 2)[0], err)
				}
			}
			_, err := tx.ExecContext(ctx,
				s.rebind("INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)"),
				m.Version, m.Name, s.now(),
			)
			return err
		})
		if err != nil {
			return count, fmt.Errorf("migration %s failed: %w", m.Name, err)
		}
		s.log.Info("applied migration", zap.Int64("version", m.Version), zap.String("name", m.Name))
		count++
	}
	return count, nil
}

func (s *Store) appliedVersions(ctx context.Context) (map[int64]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int64]bool)
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migrations: %w", err)
	}
	return applied, nil
}

// setClock pins the timestamps written by the store
func (s *Store) setClock(now func() time.Time) {
	s.now = now
}
