package database

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mbolis/alumni-survey/log"
)

//go:embed migrations
var schema embed.FS

// migrateDB brings the survey schema to the latest embedded version.
func migrateDB(db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	before, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}

	if err = m.Up(); errors.Is(err, migrate.ErrNoChange) {
		log.Debugf("survey schema at version %d", before)
		return nil
	} else if err != nil {
		return err
	}

	after, dirty, err := m.Version()
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"from": before, "to": after, "dirty": dirty}).Info("survey schema migrated")
	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(schema, "migrations")
	if err != nil {
		return nil, err
	}
	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", src, "sqlite3", dst)
}
