package main

import (
	"database/sql"
	"fmt"

	"github.com/banshee-data/trd-gtu/internal/config"
	"github.com/banshee-data/trd-gtu/internal/gtu/storage/sqlite"
)

// openStore opens the configured database and brings its schema up to date.
func openStore(cfg *config.GTUConfig) (*sql.DB, error) {
	path := cfg.GetDatabasePath()
	if path == "" {
		return nil, fmt.Errorf("no database: set --db or database_path")
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	if err := sqlite.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
