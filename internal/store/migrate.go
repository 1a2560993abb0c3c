// Copyright 2025 The Hookfeed Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations
var migrationsFS embed.FS

// MigrateUp applies all pending migrations for the SQL backend named by uri.
func MigrateUp(uri string) error {
	m, err := newMigrator(uri)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrateDown rolls back steps migrations for the SQL backend named by uri.
func MigrateDown(uri string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("migrate down: steps must be > 0")
	}
	m, err := newMigrator(uri)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// MigrationVersion reports the applied schema version and whether the last
// migration left the schema dirty.
func MigrationVersion(uri string) (uint, bool, error) {
	m, err := newMigrator(uri)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrator(m)

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migration version: %w", err)
	}
	return version, dirty, nil
}

// newMigrator opens a dedicated connection for uri; closing the migrator closes it.
func newMigrator(uri string) (*migrate.Migrate, error) {
	kind, target, err := parseURI(uri)
	if err != nil {
		return nil, err
	}

	var (
		db      *sql.DB
		driver  database.Driver
		dialect string
	)
	switch kind {
	case backendSQLite:
		dialect = "sqlite"
		db, err = sql.Open("sqlite", target)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	case backendPostgres:
		dialect = "postgres"
		var connConfig *pgx.ConnConfig
		connConfig, err = pgx.ParseConfig(target)
		if err != nil {
			return nil, fmt.Errorf("parse postgres connection string: %w", err)
		}
		db = stdlib.OpenDB(*connConfig)
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{})
	default:
		return nil, fmt.Errorf("backend %q has no migrations", kind)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init %s migration driver: %w", dialect, err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+dialect)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("load %s migrations: %w", dialect, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	_, _ = m.Close()
}
