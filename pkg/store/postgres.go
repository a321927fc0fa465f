package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pyhub-apps/nh3ingest/pkg/measure"
)

// Pool is the part of a pgx pool the Postgres sink uses
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Postgres is a sink backed by a pgx pool. Rows are bulk loaded with COPY.
type Postgres struct {
	pool Pool
}

// OpenPostgres connects to dsn
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewPostgres(pool), nil
}

// NewPostgres wraps an existing pool
func NewPostgres(pool Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Replace runs the table swap, the COPY and the view rebuild in one
// transaction
func (p *Postgres) Replace(ctx context.Context, records []measure.Record) error {
	return p.inTx(ctx, func(tx pgx.Tx) error {
		if err := execEach(ctx, tx, postgresDialect.replaceTable()); err != nil {
			return err
		}

		rows := make([][]any, len(records))
		for i, r := range records {
			rows[i] = r.Values()
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{Table}, measure.Columns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy into %s: %w", Table, err)
		}
		if n != int64(len(rows)) {
			return fmt.Errorf("copy into %s: wrote %d of %d rows", Table, n, len(rows))
		}
		return execEach(ctx, tx, postgresDialect.views())
	})
}

func execEach(ctx context.Context, tx pgx.Tx, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
