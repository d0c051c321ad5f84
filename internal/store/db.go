package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a SQLite connection to a decrypted Signal Desktop database.
type DB struct {
	*sql.DB
}

// Open creates a read-write SQLite connection. Used for sample and fixture stores.
func Open(path string) (*DB, error) {
	return open(path + "?_busy_timeout=5000")
}

// OpenReadOnly opens an existing database without ever writing to it.
func OpenReadOnly(path string) (*DB, error) {
	return open("file:" + path + "?mode=ro&_busy_timeout=5000")
}

func open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{db}, nil
}
