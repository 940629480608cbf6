package db

import (
	_ "embed"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB represents the sqlite3 file where we keep local state that has to survive
// a restart: the two session tokens and the cookie jar.
type DB struct{ *gorm.DB }

//go:embed schema.sql
var schema string

// Open returns a connection to a migrated sqlite3 database file on disk,
// creating the file and running migrations if necessary.
func Open(filename string) (*DB, error) {
	gdb, err := gorm.Open(sqlite.Open(filename), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening db file at '%s': %w", filename, err)
	}

	db := &DB{gdb}

	if err := db.Exec(schema).Error; err != nil {
		return nil, fmt.Errorf("error migrating db at '%s': %w", filename, err)
	}

	return db, nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	pool, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("error getting connection pool: %w", err)
	}
	return pool.Close()
}
