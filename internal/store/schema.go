package store

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/matheus3301/sigexport/internal/store/migrations"
)

// CreateSchema lays down the Signal Desktop tables and indexes the exporter reads, on a
// database created by this program. Stores written by Signal are opened read-only and never
// passed here. It returns the schema version and whether any step was applied.
func (db *DB) CreateSchema() (version uint, applied bool, err error) {
	steps, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return 0, false, fmt.Errorf("schema files: %w", err)
	}
	target, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return 0, false, fmt.Errorf("schema target: %w", err)
	}
	m, err := migrate.NewWithInstance("signal-schema", steps, "sqlite3", target)
	if err != nil {
		return 0, false, fmt.Errorf("schema runner: %w", err)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
	case err != nil:
		return 0, false, fmt.Errorf("create schema: %w", err)
	default:
		applied = true
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, applied, fmt.Errorf("schema version: %w", err)
	}
	if dirty {
		return version, applied, fmt.Errorf("schema version %d left dirty", version)
	}
	return version, applied, nil
}
