// Package app wires the ingestion stages together: discover reports, run
// the per-file pipeline, write the interchange snapshot, load the store
// and export run metrics.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pyhub-apps/nh3ingest/pkg/batch"
	"github.com/pyhub-apps/nh3ingest/pkg/clean"
	"github.com/pyhub-apps/nh3ingest/pkg/config"
	"github.com/pyhub-apps/nh3ingest/pkg/extract"
	"github.com/pyhub-apps/nh3ingest/pkg/metrics"
	"github.com/pyhub-apps/nh3ingest/pkg/normalize"
	"github.com/pyhub-apps/nh3ingest/pkg/probe"
	"github.com/pyhub-apps/nh3ingest/pkg/store"
)

// Run results reported to metrics
const (
	ResultOK     = "ok"
	ResultNoData = "no_data"
	ResultError  = "error"
)

// App runs ingestion batches
type App struct {
	cfg     config.Config
	log     zerolog.Logger
	runner  *batch.Runner
	loader  *store.Loader
	metrics *metrics.Metrics
	now     func() time.Time
}

type options struct {
	strategies []extract.Strategy
	open       store.Opener
	count      probe.CountFunc
}

// Option customises New
type Option func(*options)

// WithStrategies replaces the configured extraction strategies
func WithStrategies(s ...extract.Strategy) Option {
	return func(o *options) { o.strategies = s }
}

// WithStore replaces the configured sink
func WithStore(open store.Opener) Option {
	return func(o *options) { o.open = open }
}

// WithPageCounter replaces the page counter used by the prober
func WithPageCounter(count probe.CountFunc) Option {
	return func(o *options) { o.count = count }
}

// New validates cfg and builds the pipeline it describes
func New(cfg config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.strategies == nil {
		for _, name := range cfg.Extract.Strategies {
			s, err := extract.ByName(name, log)
			if err != nil {
				return nil, err
			}
			o.strategies = append(o.strategies, s)
		}
	}
	if o.open == nil {
		open, err := store.OpenerFor(cfg.Store.Driver, cfg.Store.SQLite.Path, cfg.Store.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		o.open = open
	}

	prober := probe.New(cfg.Input.StartPage, log)
	if o.count != nil {
		prober = prober.WithCounter(o.count)
	}
	pipeline := &batch.Pipeline{
		Prober:     prober,
		Extractor:  extract.New(log, o.strategies...),
		Normalizer: normalize.New(log),
		Cleaner:    clean.New(log),
		Log:        log,
	}

	return &App{
		cfg:     cfg,
		log:     log,
		runner:  batch.NewRunner(pipeline, cfg.Extract.Workers, log),
		loader:  store.NewLoader(o.open, log),
		metrics: metrics.New(),
		now:     time.Now,
	}, nil
}

// Metrics returns the run counters
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Report describes one run
type Report struct {
	Summary  batch.Summary
	Snapshot batch.Snapshot
	Load     store.LoadResult
}

// Run processes every PDF in the input directory. A run that finds no
// data at all returns batch.ErrNoData and writes nothing.
func (a *App) Run(ctx context.Context) (rep Report, err error) {
	defer func() { a.finish(err) }()

	files, err := batch.Discover(a.cfg.Input.Dir)
	if err != nil {
		return rep, err
	}

	ds, sum, err := a.runner.Run(ctx, files)
	rep.Summary = sum
	a.metrics.ObserveBatch(sum)
	if err != nil {
		return rep, err
	}
	log := a.log.With().Str("run_id", ds.RunID).Logger()

	rep.Snapshot, err = batch.WriteSnapshot(a.cfg.Snapshot.Dir, ds, a.cfg.Snapshot.XLSX)
	if err != nil {
		return rep, err
	}
	a.metrics.ObserveSnapshot(rep.Snapshot)
	log.Info().Str("csv", rep.Snapshot.CSV).Str("xlsx", rep.Snapshot.XLSX).Int("rows", rep.Snapshot.Rows).
		Msg("snapshot written")

	rep.Load, err = a.loader.Load(ctx, ds)
	if err != nil {
		return rep, err
	}
	a.metrics.ObserveLoad(rep.Load)

	log.Info().Int("files", len(files)).Int("skipped_files", len(sum.Skipped())).
		Int("rows", ds.Len()).Int("persisted", rep.Load.Rows).Msg("run complete")
	return rep, nil
}

// Reprocess loads a previously written CSV snapshot into the store
// without reading any PDF
func (a *App) Reprocess(ctx context.Context, snapshot string) (rep Report, err error) {
	defer func() { a.finish(err) }()

	ds, err := batch.ReadSnapshot(snapshot)
	if err != nil {
		return rep, err
	}
	if ds.Len() == 0 {
		return rep, batch.ErrNoData
	}
	rep.Snapshot = batch.Snapshot{CSV: snapshot, Rows: ds.Len()}

	rep.Load, err = a.loader.Load(ctx, ds)
	if err != nil {
		return rep, err
	}
	a.metrics.ObserveLoad(rep.Load)
	a.log.Info().Str("snapshot", snapshot).Int("rows", ds.Len()).Int("persisted", rep.Load.Rows).
		Msg("snapshot reprocessed")
	return rep, nil
}

func (a *App) finish(err error) {
	result := ResultOK
	switch {
	case errors.Is(err, batch.ErrNoData):
		result = ResultNoData
		a.log.Warn().Msg("run finished without data")
	case err != nil:
		result = ResultError
		a.log.Error().Err(err).Msg("run failed")
	}
	a.metrics.ObserveRun(result, a.now())

	if path := a.cfg.Metrics.Textfile; path != "" {
		if werr := a.metrics.WriteTextfile(path); werr != nil {
			a.log.Error().Err(werr).Str("path", path).Msg("failed to write metrics textfile")
		}
	}
}
