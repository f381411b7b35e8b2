// Package local is an embedded backend that keeps tables, accounts and the
// client session in BadgerDB.
package local

import (
	"fmt"
	"io"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// DB is an open Badger database.
type DB struct {
	db   *badger.DB
	once sync.Once
}

// Open opens the database at path, creating it if needed.
func Open(path string) (*DB, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithSyncWrites(false).
		WithNumVersionsToKeep(1)
	return open(opts)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*DB, error) {
	return open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

func open(opts badger.Options) (*DB, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database. Calling it again is a no-op.
func (d *DB) Close() error {
	var err error
	d.once.Do(func() { err = d.db.Close() })
	return err
}

// Clear drops every key.
func (d *DB) Clear() error {
	return d.db.DropAll()
}

// Backup writes a full backup to w.
func (d *DB) Backup(w io.Writer) error {
	if _, err := d.db.Backup(w, 0); err != nil {
		return fmt.Errorf("failed to backup database: %w", err)
	}
	return nil
}

// Restore loads a backup written by Backup.
func (d *DB) Restore(r io.Reader) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic occurred during restore: %v", p)
		}
	}()
	return d.db.Load(r, 4)
}
