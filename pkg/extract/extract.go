// Package extract pulls raw table fragments out of report PDFs by trying an
// ordered list of strategies, each first with the default encoding and then
// once with the alternate one.
package extract

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pyhub-apps/nh3ingest/pkg/probe"
)

// Fragment is one table as found by one strategy, cells still raw text
type Fragment struct {
	Rows       [][]string
	SourceFile string
	Strategy   string
	Page       int
}

// Columns returns the widest row length
func (f Fragment) Columns() int {
	n := 0
	for _, row := range f.Rows {
		n = max(n, len(row))
	}
	return n
}

// Strategy extracts tables from the given pages of a document. Returning
// no fragments and a nil error means the strategy found nothing.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, path string, pages probe.PageRange, enc Encoding) ([]Fragment, error)
}

// Outcome classifies one attempt
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeEmpty
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty"
	default:
		return "failed"
	}
}

// Attempt records one (strategy, encoding) try
type Attempt struct {
	Strategy  string
	Encoding  Encoding
	Outcome   Outcome
	Fragments int
	Err       error
}

// Result is the outcome of extracting one file
type Result struct {
	Fragments []Fragment
	Strategy  string // winning strategy, empty when nothing was found
	Attempts  []Attempt
}

// Empty reports whether no strategy produced a table
func (r Result) Empty() bool {
	return len(r.Fragments) == 0
}

// Extractor runs strategies in order until one yields tables
type Extractor struct {
	strategies []Strategy
	log        zerolog.Logger
}

// New returns an Extractor trying strategies in the given order
func New(log zerolog.Logger, strategies ...Strategy) *Extractor {
	return &Extractor{strategies: strategies, log: log}
}

// Strategies returns the strategy names in trial order
func (e *Extractor) Strategies() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

// Extract returns the fragments of the first strategy that finds at least
// one non-empty table. Later strategies are not run and results are never
// merged. Failures are recorded in the attempt log, not returned.
func (e *Extractor) Extract(ctx context.Context, path string, pages probe.PageRange) Result {
	var res Result
	log := e.log.With().Str("file", filepath.Base(path)).Str("pages", pages.String()).Logger()

	for _, s := range e.strategies {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Msg("extraction cancelled")
			return res
		}

		log.Info().Str("strategy", s.Name()).Msg("trying extraction strategy")
		frags, attempt := e.attempt(ctx, s, path, pages, DefaultEncoding)
		res.Attempts = append(res.Attempts, attempt)

		if errors.Is(attempt.Err, ErrEncodingMismatch) && ctx.Err() == nil {
			log.Warn().Err(attempt.Err).Str("strategy", s.Name()).
				Str("encoding", string(AlternateEncoding)).Msg("retrying with alternate encoding")
			frags, attempt = e.attempt(ctx, s, path, pages, AlternateEncoding)
			res.Attempts = append(res.Attempts, attempt)
		}

		switch attempt.Outcome {
		case OutcomeSuccess:
			log.Info().Str("strategy", s.Name()).Int("tables", len(frags)).Msg("tables found")
			res.Fragments = frags
			res.Strategy = s.Name()
			return res
		case OutcomeEmpty:
			log.Warn().Str("strategy", s.Name()).Msg("no tables found")
		default:
			log.Error().Err(attempt.Err).Str("strategy", s.Name()).Msg("strategy failed")
		}
	}
	return res
}

func (e *Extractor) attempt(ctx context.Context, s Strategy, path string, pages probe.PageRange, enc Encoding) ([]Fragment, Attempt) {
	a := Attempt{Strategy: s.Name(), Encoding: enc}
	frags, err := s.Extract(ctx, path, pages, enc)
	if err != nil {
		a.Outcome = OutcomeFailed
		a.Err = err
		return nil, a
	}

	var kept []Fragment
	for _, f := range frags {
		if len(f.Rows) > 0 {
			kept = append(kept, f)
		}
	}
	a.Fragments = len(kept)
	if len(kept) == 0 {
		a.Outcome = OutcomeEmpty
		return nil, a
	}
	a.Outcome = OutcomeSuccess
	return kept, a
}
