package extract

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pyhub-apps/nh3ingest/pkg/pdf"
	"github.com/pyhub-apps/nh3ingest/pkg/probe"
)

// Built-in strategy names
const (
	StrategyStream  = "stream"
	StrategyLattice = "lattice"
)

// PDFStrategy extracts tables through the pdf package. The stream variant
// infers columns from text alignment; the lattice variant builds cells
// from ruling lines.
type PDFStrategy struct {
	name    string
	mode    string
	minRows int
	open    pdf.Opener
	log     zerolog.Logger
}

// Stream returns the text-alignment strategy
func Stream(log zerolog.Logger) *PDFStrategy {
	return &PDFStrategy{name: StrategyStream, mode: pdf.StrategyText, minRows: 2, open: pdf.Open, log: log}
}

// Lattice returns the ruling-line strategy
func Lattice(log zerolog.Logger) *PDFStrategy {
	return &PDFStrategy{name: StrategyLattice, mode: pdf.StrategyLines, minRows: 2, open: pdf.Open, log: log}
}

// ByName returns the built-in strategy with the given name
func ByName(name string, log zerolog.Logger) (Strategy, error) {
	switch name {
	case StrategyStream:
		return Stream(log), nil
	case StrategyLattice:
		return Lattice(log), nil
	default:
		return nil, fmt.Errorf("unknown extraction strategy %q", name)
	}
}

// Name returns the strategy name
func (s *PDFStrategy) Name() string {
	return s.name
}

// Extract opens the document, reads every page in the range and decodes
// the cells of each table found. The document is closed on every path and
// a panic inside a PDF backend becomes an error.
func (s *PDFStrategy) Extract(ctx context.Context, path string, pages probe.PageRange, enc Encoding) (frags []Fragment, err error) {
	defer func() {
		if r := recover(); r != nil {
			frags, err = nil, fmt.Errorf("%s strategy: recovered from panic: %v", s.name, r)
		}
	}()

	doc, err := s.open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	numbers := pages.Pages(doc.PageCount())
	var rulings map[int][]pdf.LineObject
	if s.mode == pdf.StrategyLines && len(numbers) > 0 {
		if rulings, err = pdf.ReadRulings(path, numbers); err != nil {
			s.log.Debug().Err(err).Str("file", path).Msg("ruling lines unavailable, using rectangles only")
		}
	}

	for _, n := range numbers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := doc.GetPage(n - 1)
		if err != nil {
			s.log.Warn().Err(err).Str("file", path).Int("page", n).Msg("skipping unreadable page")
			continue
		}

		opts := []pdf.TableExtractionOption{
			pdf.WithTableStrategy(s.mode),
			pdf.WithMinTableSize(s.minRows),
		}
		if lines := rulings[n]; len(lines) > 0 {
			opts = append(opts, pdf.WithRulings(lines))
		}

		for _, table := range page.ExtractTables(opts...) {
			rows, err := enc.DecodeRows(table.Rows, n)
			if err != nil {
				return nil, err
			}
			frags = append(frags, Fragment{
				Rows:       rows,
				SourceFile: path,
				Strategy:   s.name,
				Page:       n,
			})
		}
	}
	return frags, nil
}
