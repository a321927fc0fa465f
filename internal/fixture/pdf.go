// Package fixture generates small sensor-report PDFs for tests.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/require"
)

// Header is the column header row printed above every report table
var Header = []string{"Fecha", "Hora", "NH3", "Rango_NH3", "Temperatura", "Rango_Temperatura", "Humedad", "Rango_Humedad"}

// Report describes a generated document
type Report struct {
	Pages     int        // total number of pages
	TableFrom int        // first 1-based page that carries the table; 0 means none
	Rows      [][]string // table body, repeated on every table page
}

// WritePages writes a document of n text-only pages and returns its path
func WritePages(tb testing.TB, path string, n int) string {
	tb.Helper()
	return WriteReport(tb, path, Report{Pages: n})
}

// WriteReport writes a document whose pages from TableFrom on carry a
// bordered eight-column table, one cell rectangle per value
func WriteReport(tb testing.TB, path string, r Report) string {
	tb.Helper()
	require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o755))

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 8)
	// core fonts are cp1252
	tr := doc.UnicodeTranslatorFromDescriptor("")
	for page := 1; page <= r.Pages; page++ {
		doc.AddPage()
		doc.CellFormat(190, 10, tr(fmt.Sprintf("Relatório de monitoramento - página %d", page)), "", 1, "L", false, 0, "")
		if r.TableFrom == 0 || page < r.TableFrom {
			continue
		}
		const width = 190.0 / 8
		for _, label := range Header {
			doc.CellFormat(width, 8, tr(label), "1", 0, "C", false, 0, "")
		}
		doc.Ln(-1)
		for _, row := range r.Rows {
			for i := 0; i < len(Header); i++ {
				value := ""
				if i < len(row) {
					value = row[i]
				}
				doc.CellFormat(width, 8, tr(value), "1", 0, "C", false, 0, "")
			}
			doc.Ln(-1)
		}
	}
	require.NoError(tb, doc.OutputFileAndClose(path))
	return path
}
