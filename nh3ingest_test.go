package nh3ingest

import (
	"path/filepath"
	"testing"

	"github.com/pyhub-apps/nh3ingest/internal/fixture"
)

func writeSample(t *testing.T) string {
	return fixture.WriteReport(t, filepath.Join(t.TempDir(), "aviario_12.pdf"), fixture.Report{
		Pages:     6,
		TableFrom: 5,
		Rows: [][]string{
			{"04/03/2024", "06:00", "14 ppm", "OK", "21,8", "OK", "62 %", "OK"},
			{"04/03/2024", "07:00", "23 ppm", "ALTO", "22,3", "OK", "60 %", "OK"},
		},
	})
}

func TestOpenPDF(t *testing.T) {
	path := writeSample(t)

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open PDF: %v", err)
	}
	defer doc.Close()

	if doc.PageCount() != 6 {
		t.Errorf("Expected 6 pages, got %d", doc.PageCount())
	}

	n, err := CountPages(path)
	if err != nil {
		t.Fatalf("Failed to count pages: %v", err)
	}
	if n != doc.PageCount() {
		t.Errorf("CountPages = %d, document reports %d", n, doc.PageCount())
	}
}

func TestTableExtraction(t *testing.T) {
	path := writeSample(t)

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open PDF: %v", err)
	}
	defer doc.Close()

	for i := 0; i < doc.PageCount(); i++ {
		page, err := doc.GetPage(i)
		if err != nil {
			t.Fatalf("Failed to get page %d: %v", i+1, err)
		}
		tables := page.ExtractTables(WithTableStrategy(StrategyLines))

		if page.GetPageNumber() < 5 {
			if len(tables) != 0 {
				t.Errorf("Page %d: expected no table, got %d", page.GetPageNumber(), len(tables))
			}
			continue
		}
		if len(tables) != 1 {
			t.Fatalf("Page %d: expected 1 table, got %d", page.GetPageNumber(), len(tables))
		}
		table := tables[0]
		t.Logf("Page %d: %d rows x %d columns", page.GetPageNumber(), len(table.Rows), table.Columns())

		if table.Columns() != 8 {
			t.Errorf("Expected 8 columns, got %d", table.Columns())
		}
		if len(table.Rows) != 3 {
			t.Fatalf("Expected header plus 2 rows, got %d", len(table.Rows))
		}
		if got := table.Rows[2][2]; got != "23 ppm" {
			t.Errorf("Expected NH3 cell %q, got %q", "23 ppm", got)
		}
	}
}

func TestReadRulings(t *testing.T) {
	path := writeSample(t)

	rulings, err := ReadRulings(path, []int{1, 5})
	if err != nil {
		t.Fatalf("Failed to read rulings: %v", err)
	}
	if len(rulings[1]) != 0 {
		t.Errorf("Expected no rulings on the cover page, got %d", len(rulings[1]))
	}
	// every bordered cell is a stroked rectangle: four edges each
	if want := 3 * 8 * 4; len(rulings[5]) < want {
		t.Errorf("Expected at least %d ruling segments on page 5, got %d", want, len(rulings[5]))
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default configuration is invalid: %v", err)
	}
	if cfg.Input.StartPage != 5 {
		t.Errorf("Expected start page 5, got %d", cfg.Input.StartPage)
	}
}
