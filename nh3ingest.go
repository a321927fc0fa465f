// Package nh3ingest turns aviary sensor report PDFs into a typed
// measurement table with derived aggregate views.
package nh3ingest

import (
	"github.com/pyhub-apps/nh3ingest/pkg/app"
	"github.com/pyhub-apps/nh3ingest/pkg/batch"
	"github.com/pyhub-apps/nh3ingest/pkg/config"
	"github.com/pyhub-apps/nh3ingest/pkg/measure"
	"github.com/pyhub-apps/nh3ingest/pkg/pdf"
)

// Re-export types for the public API
type (
	Config     = config.Config
	App        = app.App
	Option     = app.Option
	Report     = app.Report
	Record     = measure.Record
	Dataset    = measure.Dataset
	Document   = pdf.Document
	Page       = pdf.Page
	Table      = pdf.Table
	LineObject = pdf.LineObject

	TableExtractionOption = pdf.TableExtractionOption
)

// Table strategies for ExtractTables
const (
	StrategyLines = pdf.StrategyLines
	StrategyText  = pdf.StrategyText
)

// Re-export constructors and options
var (
	DefaultConfig = config.Default
	New           = app.New
	ReadSnapshot  = batch.ReadSnapshot

	WithTableStrategy = pdf.WithTableStrategy
	WithMinTableSize  = pdf.WithMinTableSize
	WithTextTolerance = pdf.WithTextTolerance
	WithRulings       = pdf.WithRulings
)

// ErrNoData is returned by App.Run when no file yields a row
var ErrNoData = batch.ErrNoData

// Open opens a PDF with the first backend that can read it
func Open(path string) (Document, error) {
	return pdf.Open(path)
}

// CountPages returns the number of pages in a PDF
func CountPages(path string) (int, error) {
	return pdf.CountPages(path)
}

// ReadRulings returns the ruling lines drawn on the given 1-based pages
func ReadRulings(path string, pages []int) (map[int][]LineObject, error) {
	return pdf.ReadRulings(path, pages)
}
