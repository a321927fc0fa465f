// Package store persists a batch dataset into the canonical measurement
// table and rebuilds the aggregate views derived from it.
//
// Every load fully replaces the table and the views; nothing is appended.
// Rows without a positive ammonia reading are treated as inactive sensor
// samples and never reach the store.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pyhub-apps/nh3ingest/pkg/measure"
)

// Supported sink drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned by OpenerFor for an unsupported driver name
var ErrUnknownDriver = errors.New("unknown store driver")

// Sink is a destination for the canonical table and its views
type Sink interface {
	// Replace drops and recreates the table holding exactly records and
	// rebuilds the derived views. Either all of it commits or none of it.
	Replace(ctx context.Context, records []measure.Record) error
	Close() error
}

// Opener connects to a sink. The loader calls it at most once per load.
type Opener func(ctx context.Context) (Sink, error)

// OpenerFor returns the opener for a driver name
func OpenerFor(driver, sqlitePath, postgresDSN string) (Opener, error) {
	switch driver {
	case DriverSQLite, "":
		return func(ctx context.Context) (Sink, error) {
			return OpenSQLite(ctx, sqlitePath)
		}, nil
	case DriverPostgres:
		return func(ctx context.Context) (Sink, error) {
			return OpenPostgres(ctx, postgresDSN)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// Persistable reports whether a record carries a present, positive
// ammonia reading
func Persistable(r measure.Record) bool {
	return r.NH3.Valid && r.NH3.Int64 > 0
}

// LoadResult describes one load
type LoadResult struct {
	Rows     int  // rows written
	Filtered int  // rows dropped by Persistable
	Skipped  bool // nothing survived the filter; the sink was not touched
}

// Loader writes datasets through a Sink
type Loader struct {
	open Opener
	log  zerolog.Logger
}

// NewLoader creates a loader
func NewLoader(open Opener, log zerolog.Logger) *Loader {
	return &Loader{open: open, log: log.With().Str("component", "store").Logger()}
}

// Load filters ds and replaces the table and views with the result
func (l *Loader) Load(ctx context.Context, ds measure.Dataset) (res LoadResult, err error) {
	records := ds.Filter(Persistable)
	res.Filtered = ds.Len() - len(records)

	if len(records) == 0 {
		res.Skipped = true
		l.log.Warn().
			Int("rows", ds.Len()).
			Msg("no rows with a positive NH3 reading, persistence skipped")
		return res, nil
	}

	sink, err := l.open(ctx)
	if err != nil {
		return res, fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()

	if err := sink.Replace(ctx, records); err != nil {
		return res, fmt.Errorf("replace %s: %w", Table, err)
	}

	res.Rows = len(records)
	l.log.Info().
		Int("rows", res.Rows).
		Int("filtered", res.Filtered).
		Strs("views", Views).
		Msg("measurements persisted")
	return res, nil
}
