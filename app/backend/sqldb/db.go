// Package sqldb serves the backend contract from PostgreSQL or MySQL through
// database/sql.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// Querier is the common interface of DB and Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Dialect() Dialect
}

// Logger receives every statement before it runs.
type Logger interface {
	Log(ctx context.Context, query string, args ...any)
}

// StdLogger logs statements with the standard logger.
type StdLogger struct{}

func (StdLogger) Log(_ context.Context, query string, args ...any) {
	log.Printf("sql: %s %v", query, args)
}

// DB wraps *sql.DB with a Dialect.
type DB struct {
	raw    *sql.DB
	d      Dialect
	logger Logger
}

// New wraps an open *sql.DB.
func New(raw *sql.DB, d Dialect) *DB {
	return &DB{raw: raw, d: d}
}

// OpenPostgres connects through the pgx driver.
func OpenPostgres(dsn string) (*DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	return New(stdlib.OpenDB(*cfg), PostgreSQL), nil
}

// OpenMySQL connects through the MySQL driver. Timestamps are always parsed
// into UTC time.Time values.
func OpenMySQL(dsn string) (*DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	return New(sql.OpenDB(connector), MySQL), nil
}

// Debug returns a DB that logs every statement to l.
func (db *DB) Debug(l Logger) *DB {
	return &DB{raw: db.raw, d: db.d, logger: l}
}

func (db *DB) Dialect() Dialect { return db.d }

func (db *DB) Ping(ctx context.Context) error {
	return db.raw.PingContext(ctx)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if db.logger != nil {
		db.logger.Log(ctx, query, args...)
	}
	return db.raw.QueryContext(ctx, query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if db.logger != nil {
		db.logger.Log(ctx, query, args...)
	}
	return db.raw.QueryRowContext(ctx, query, args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if db.logger != nil {
		db.logger.Log(ctx, query, args...)
	}
	return db.raw.ExecContext(ctx, query, args...)
}

// Transaction runs fn in a transaction, committing when it returns nil and
// rolling back on error or panic.
func (db *DB) Transaction(ctx context.Context, fn func(tx *Tx) error) (err error) {
	raw, err := db.raw.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	tx := &Tx{raw: raw, d: db.d, logger: db.logger}
	defer func() {
		if p := recover(); p != nil {
			_ = raw.Rollback()
			panic(p)
		}
		if err != nil {
			_ = raw.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return raw.Commit()
}

func (db *DB) Close() error { return db.raw.Close() }

// Tx wraps *sql.Tx with a Dialect.
type Tx struct {
	raw    *sql.Tx
	d      Dialect
	logger Logger
}

func (tx *Tx) Dialect() Dialect { return tx.d }

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if tx.logger != nil {
		tx.logger.Log(ctx, query, args...)
	}
	return tx.raw.QueryContext(ctx, query, args...)
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if tx.logger != nil {
		tx.logger.Log(ctx, query, args...)
	}
	return tx.raw.ExecContext(ctx, query, args...)
}
