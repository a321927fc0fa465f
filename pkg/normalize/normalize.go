package normalize

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"

	"github.com/pyhub-apps/nh3ingest/pkg/extract"
)

// Table is a fragment mapped onto a schema
type Table struct {
	Schema     Schema
	Rows       []map[string]string
	SourceFile string // file stem
	DeviceID   string
	Strategy   string
	Page       int
}

// Normalizer turns fragments into tables
type Normalizer struct {
	log             zerolog.Logger
	headerThreshold int
}

// New returns a Normalizer. A canonical row counts as a repeated header
// when at least five of its eight cells resemble their column label.
func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log, headerThreshold: 5}
}

// Normalize chooses the schema from the fragment's width, labels its cells
// and drops blank rows and repeated header rows
func (n *Normalizer) Normalize(f extract.Fragment) Table {
	schema := SchemaFor(f.Columns())
	t := Table{
		Schema:     schema,
		SourceFile: Stem(f.SourceFile),
		DeviceID:   DeviceID(f.SourceFile),
		Strategy:   f.Strategy,
		Page:       f.Page,
	}

	if schema.Kind != Canonical {
		n.log.Warn().Str("file", t.SourceFile).Int("page", f.Page).Int("columns", schema.Width()).
			Msg("table width does not match the report layout, keeping positional columns")
	}

	headers := 0
	for _, row := range f.Rows {
		if blank(row) {
			continue
		}
		if schema.Kind == Canonical && n.isHeader(row, schema.Labels) {
			headers++
			continue
		}
		labelled := make(map[string]string, schema.Width())
		for i, label := range schema.Labels {
			if i < len(row) {
				labelled[label] = strings.TrimSpace(row[i])
			} else {
				labelled[label] = ""
			}
		}
		t.Rows = append(t.Rows, labelled)
	}

	n.log.Debug().Str("file", t.SourceFile).Int("page", f.Page).Str("schema", schema.Kind.String()).
		Int("rows", len(t.Rows)).Int("headers_dropped", headers).Msg("table normalised")
	return t
}

func (n *Normalizer) isHeader(row []string, labels []string) bool {
	hits := 0
	for i, label := range labels {
		if i < len(row) && resembles(row[i], label) {
			hits++
		}
	}
	return hits >= n.headerThreshold
}

// resembles reports whether one of cell and label is a fuzzy subsequence
// of the other, ignoring case, accents, spacing and punctuation
func resembles(cell, label string) bool {
	c, l := compact(cell), compact(label)
	if len([]rune(c)) < 3 {
		return false
	}
	return fuzzy.MatchNormalizedFold(c, l) || fuzzy.MatchNormalizedFold(l, c)
}

func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
