// Package batch runs the per-file pipeline over a directory of reports and
// assembles the run's dataset and interchange snapshot.
package batch

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pyhub-apps/nh3ingest/pkg/clean"
	"github.com/pyhub-apps/nh3ingest/pkg/extract"
	"github.com/pyhub-apps/nh3ingest/pkg/measure"
	"github.com/pyhub-apps/nh3ingest/pkg/normalize"
	"github.com/pyhub-apps/nh3ingest/pkg/probe"
)

// FileResult is what one file contributed to a run
type FileResult struct {
	Path       string
	Pages      probe.PageRange
	Extraction extract.Result
	Tables     int
	Positional int
	Records    []measure.Record
	Cleaning   clean.Report
}

// Skipped reports whether the file produced no rows
func (r FileResult) Skipped() bool {
	return len(r.Records) == 0
}

// Pipeline is the per-file chain: probe, extract, normalise, clean
type Pipeline struct {
	Prober     *probe.Prober
	Extractor  *extract.Extractor
	Normalizer *normalize.Normalizer
	Cleaner    *clean.Cleaner
	Log        zerolog.Logger
}

// ProcessFile runs one file through the pipeline. It never fails: a file
// without usable tables yields an empty result and a warning.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) FileResult {
	log := p.Log.With().Str("file", filepath.Base(path)).Logger()
	res := FileResult{Path: path}

	log.Info().Msg("processing file")
	res.Pages = p.Prober.Probe(ctx, path)
	res.Extraction = p.Extractor.Extract(ctx, path, res.Pages)
	if res.Extraction.Empty() {
		log.Warn().Int("attempts", len(res.Extraction.Attempts)).Msg("no data extracted, skipping file")
		return res
	}

	for _, frag := range res.Extraction.Fragments {
		table := p.Normalizer.Normalize(frag)
		res.Tables++
		if table.Schema.Kind != normalize.Canonical {
			res.Positional++
		}
		records, rep := p.Cleaner.Clean(table)
		res.Records = append(res.Records, records...)
		res.Cleaning.Add(rep)
	}

	if res.Skipped() {
		log.Warn().Int("tables", res.Tables).Msg("tables held no data rows, skipping file")
		return res
	}
	log.Info().Str("strategy", res.Extraction.Strategy).Int("tables", res.Tables).
		Int("rows", len(res.Records)).Int("coercion_failures", res.Cleaning.FailureCount()).
		Msg("file processed")
	return res
}
