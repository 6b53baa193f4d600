package catalog

import (
	"database/sql"
	"embed"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"
)

//go:embed migrations/products/*.sql migrations/costs/*.sql
var embedMigrations embed.FS

// goose keeps its base FS and dialect in package state.
var migrateMu sync.Mutex

const (
	productsMigrations = "migrations/products"
	costsMigrations    = "migrations/costs"
)

// runMigrations applies the embedded migrations in dir to db.
func runMigrations(db *sql.DB, dir string) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return eris.Wrap(err, "goose set dialect")
	}

	if err := goose.Up(db, dir); err != nil {
		return eris.Wrapf(err, "goose up %s", dir)
	}

	return nil
}
