// Package probe determines which pages of a report hold measurement tables.
package probe

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/pyhub-apps/nh3ingest/pkg/pdf"
)

// DefaultStart is the first page carrying measurement tables in the
// exported reports; earlier pages hold the cover and summaries.
const DefaultStart = 5

// PageRange is an inclusive 1-based page range. End == 0 means open-ended.
type PageRange struct {
	Start int
	End   int
}

// OpenEnded reports whether the range has no known last page
func (r PageRange) OpenEnded() bool {
	return r.End == 0
}

// String renders the range as "5-12", or "5-" when open-ended
func (r PageRange) String() string {
	if r.OpenEnded() {
		return strconv.Itoa(r.Start) + "-"
	}
	return strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End)
}

// Pages resolves the range against the document's real page count
func (r PageRange) Pages(total int) []int {
	start := max(r.Start, 1)
	end := total
	if !r.OpenEnded() {
		end = min(r.End, total)
	}
	var pages []int
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

// CountFunc returns the page count of a document
type CountFunc func(path string) (int, error)

// Prober computes page ranges
type Prober struct {
	start int
	count CountFunc
	log   zerolog.Logger
}

// New returns a Prober starting at the given page. A non-positive start
// selects DefaultStart.
func New(start int, log zerolog.Logger) *Prober {
	if start <= 0 {
		start = DefaultStart
	}
	return &Prober{start: start, count: pdf.CountPages, log: log}
}

// WithCounter replaces the page counter
func (p *Prober) WithCounter(count CountFunc) *Prober {
	p.count = count
	return p
}

// Probe returns the range from the configured start to the last page.
// It never fails: when the page count cannot be determined the range is
// open-ended and a warning is logged.
func (p *Prober) Probe(ctx context.Context, path string) PageRange {
	r := PageRange{Start: p.start}
	total, err := p.count(path)
	if err != nil || total <= 0 {
		p.log.Warn().Err(err).Str("file", path).Msg("could not count pages, extracting open-ended")
		return r
	}
	r.End = total
	if total < p.start {
		p.log.Warn().Str("file", path).Int("pages", total).Int("start", p.start).Msg("document ends before the first table page")
	}
	p.log.Debug().Str("file", path).Str("pages", r.String()).Int("total", total).Msg("page range probed")
	return r
}
