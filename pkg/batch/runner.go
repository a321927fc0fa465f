package batch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pyhub-apps/nh3ingest/pkg/measure"
)

// ErrNoData is returned when a run extracts no rows at all
var ErrNoData = errors.New("no data extracted from any file")

// Processor handles one file
type Processor interface {
	ProcessFile(ctx context.Context, path string) FileResult
}

// Summary describes a finished run
type Summary struct {
	RunID    string
	Files    []FileResult
	Started  time.Time
	Finished time.Time
}

// Skipped returns the files that produced no rows
func (s Summary) Skipped() []string {
	var out []string
	for _, f := range s.Files {
		if f.Skipped() {
			out = append(out, f.Path)
		}
	}
	return out
}

// Runner processes every discovered file and concatenates the records
type Runner struct {
	Processor Processor
	Workers   int
	Log       zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewRunner returns a Runner. workers <= 1 processes files one at a time.
func NewRunner(p Processor, workers int, log zerolog.Logger) *Runner {
	return &Runner{
		Processor: p,
		Workers:   workers,
		Log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Run processes files and returns their records in file order, each
// file's rows in extraction order. Files run concurrently when Workers > 1
// but results are collected into per-file slots, so the order never
// depends on scheduling. With no rows at all the error is ErrNoData.
func (r *Runner) Run(ctx context.Context, files []string) (measure.Dataset, Summary, error) {
	sum := Summary{RunID: r.newID(), Started: r.now()}
	ds := measure.Dataset{RunID: sum.RunID, StartedAt: sum.Started}
	log := r.Log.With().Str("run_id", sum.RunID).Logger()

	if len(files) == 0 {
		log.Warn().Msg("no PDF files found")
		sum.Finished = r.now()
		return ds, sum, ErrNoData
	}
	log.Info().Int("files", len(files)).Int("workers", max(r.Workers, 1)).Msg("starting batch")

	results := make([]FileResult, len(files))
	if r.Workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.Workers)
		for i, path := range files {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					results[i] = FileResult{Path: path}
					return nil
				}
				results[i] = r.Processor.ProcessFile(gctx, path)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, path := range files {
			if ctx.Err() != nil {
				results[i] = FileResult{Path: path}
				continue
			}
			results[i] = r.Processor.ProcessFile(ctx, path)
		}
	}

	for _, res := range results {
		ds.Records = append(ds.Records, res.Records...)
	}
	sum.Files = results
	sum.Finished = r.now()

	if err := ctx.Err(); err != nil {
		return ds, sum, err
	}
	if ds.Len() == 0 {
		log.Warn().Int("files", len(files)).Msg("no data extracted from any file")
		return ds, sum, ErrNoData
	}
	log.Info().Int("rows", ds.Len()).Int("skipped_files", len(sum.Skipped())).
		Dur("elapsed", sum.Finished.Sub(sum.Started)).Msg("batch extracted")
	return ds, sum, nil
}
