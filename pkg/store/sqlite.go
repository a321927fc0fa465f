package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/pyhub-apps/nh3ingest/pkg/measure"
)

// SQLite is a file-backed sink
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database file at path, creating its
// directory when missing
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single writer; keeps the file lock simple
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Path returns the database file
func (s *SQLite) Path() string { return s.path }

// DB exposes the handle for read-side queries
func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) Replace(ctx context.Context, records []measure.Record) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := execAll(ctx, tx, sqliteDialect.replaceTable()); err != nil {
			return err
		}

		insert, err := tx.PrepareContext(ctx, sqliteDialect.insert())
		if err != nil {
			return err
		}
		defer insert.Close()

		for i, r := range records {
			if _, err := insert.ExecContext(ctx, r.Values()...); err != nil {
				return fmt.Errorf("insert row %d: %w", i, err)
			}
		}
		return execAll(ctx, tx, sqliteDialect.views())
	})
}

func execAll(ctx context.Context, tx *sql.Tx, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
