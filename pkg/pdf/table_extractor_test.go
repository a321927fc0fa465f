package pdf

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/nh3ingest/internal/fixture"
)

// runs lays out one text run per cell on a fixed grid, in user space
func runs(rows [][]string, left, top, colWidth, rowHeight float64) []textRun {
	var out []textRun
	for r, row := range rows {
		y := top - float64(r+1)*rowHeight + 4
		for c, cell := range row {
			if cell == "" {
				continue
			}
			out = append(out, textRun{
				Font:     "Helvetica",
				FontSize: 8,
				X:        left + float64(c)*colWidth + 2,
				Y:        y,
				W:        float64(len([]rune(cell))) * 4,
				S:        cell,
			})
		}
	}
	return out
}

// grid returns one rectangle per cell, in user space
func grid(rows, cols int, left, top, colWidth, rowHeight float64) []rectRun {
	var out []rectRun
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out = append(out, rectRun{
				MinX: left + float64(c)*colWidth,
				MinY: top - float64(r+1)*rowHeight,
				MaxX: left + float64(c+1)*colWidth,
				MaxY: top - float64(r)*rowHeight,
			})
		}
	}
	return out
}

var sampleRows = [][]string{
	{"Fecha", "Hora", "NH3", "Rango_NH3", "Temp", "Rango_T", "Hum", "Rango_H"},
	{"01/03/2024", "08:00", "18ppm", "OK", "23,5", "OK", "45%", "OK"},
	{"01/03/2024", "09:00", "22ppm", "ALTO", "24,1", "OK", "50%", "OK"},
	{"01/03/2024", "10:00", "N/D", "-", "24,8", "OK", "52%", "OK"},
}

func TestLatticeFromCellRectangles(t *testing.T) {
	p := newPage(1, 595, 842,
		runs(sampleRows, 40, 700, 60, 20),
		grid(len(sampleRows), 8, 40, 700, 60, 20))

	tables := p.ExtractTables(WithTableStrategy(StrategyLines))
	require.Len(t, tables, 1)

	table := tables[0]
	assert.Equal(t, 1, table.PageNumber)
	assert.Equal(t, 8, table.Columns())
	require.Len(t, table.Rows, 4)
	assert.Equal(t, sampleRows[1], table.Rows[1])
	assert.Equal(t, "N/D", table.Rows[3][2])
}

func TestLatticeFromRulings(t *testing.T) {
	var rulings []LineObject
	for r := 0; r <= len(sampleRows); r++ {
		y := 700 - float64(r)*20
		rulings = append(rulings, LineObject{X0: 40, Y0: y, X1: 520, Y1: y, Width: 0.5})
	}
	for c := 0; c <= 8; c++ {
		x := 40 + float64(c)*60
		rulings = append(rulings, LineObject{X0: x, Y0: 700, X1: x, Y1: 620, Width: 0.5})
	}

	p := newPage(1, 595, 842, runs(sampleRows, 40, 700, 60, 20), nil)
	assert.Empty(t, p.ExtractTables(WithTableStrategy(StrategyLines)), "no rules, no lattice table")

	tables := p.ExtractTables(WithTableStrategy(StrategyLines), WithRulings(rulings))
	require.Len(t, tables, 1)
	assert.Len(t, tables[0].Rows, 4)
	assert.Equal(t, "22ppm", tables[0].Rows[2][2])
}

func TestStreamFromAlignedText(t *testing.T) {
	lines := append([][]string{{"Relatorio semanal"}}, sampleRows...)
	p := newPage(3, 595, 842, runs(lines, 40, 700, 60, 14), nil)

	tables := p.ExtractTables(WithTableStrategy(StrategyText))
	require.Len(t, tables, 1)

	table := tables[0]
	assert.Equal(t, 3, table.PageNumber)
	assert.Equal(t, 8, table.Columns())
	require.Len(t, table.Rows, 4, "title line is trimmed")
	assert.Equal(t, "Fecha", table.Rows[0][0])
	assert.Equal(t, "45%", table.Rows[1][6])
}

func TestStrategiesIgnoreLooseText(t *testing.T) {
	p := newPage(1, 595, 842, runs([][]string{{"apenas uma linha"}}, 40, 700, 60, 14), nil)
	assert.Empty(t, p.ExtractTables(WithTableStrategy(StrategyText)))
	assert.Empty(t, p.ExtractTables(WithTableStrategy(StrategyLines)))
}

func TestMinTableSize(t *testing.T) {
	p := newPage(1, 595, 842,
		runs(sampleRows[:2], 40, 700, 60, 20),
		grid(2, 8, 40, 700, 60, 20))

	assert.Len(t, p.ExtractTables(), 1)
	assert.Empty(t, p.ExtractTables(WithMinTableSize(3)))
}

func TestExtractWords(t *testing.T) {
	p := newPage(1, 595, 842, []textRun{
		{FontSize: 10, X: 10, Y: 800, W: 40, S: "18 ppm"},
		{FontSize: 10, X: 100, Y: 800, W: 20, S: "OK"},
	}, nil)

	var texts []string
	for _, w := range p.ExtractWords() {
		texts = append(texts, w.Text)
	}
	assert.Equal(t, []string{"18", "ppm", "OK"}, texts)
}

func TestGeneratedReport(t *testing.T) {
	path := fixture.WriteReport(t, filepath.Join(t.TempDir(), "aviario_3.pdf"), fixture.Report{
		Pages:     2,
		TableFrom: 2,
		Rows: [][]string{
			{"01/03/2024", "08:00", "18 ppm", "OK", "23,5", "OK", "45 %", "OK"},
			{"01/03/2024", "09:00", "21 ppm", "ALTO", "24,0", "OK", "47 %", "OK"},
		},
	})

	n, err := CountPages(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()
	assert.Equal(t, 2, doc.PageCount())

	first, err := doc.GetPage(0)
	require.NoError(t, err)
	assert.Empty(t, first.ExtractTables())

	second, err := doc.GetPage(1)
	require.NoError(t, err)
	// A4, inherited from the page tree node
	assert.InDelta(t, 595.28, second.GetWidth(), 0.01)
	assert.InDelta(t, 841.89, second.GetHeight(), 0.01)
	tables := second.ExtractTables()
	require.Len(t, tables, 1)
	assert.Equal(t, 8, tables[0].Columns())
	require.Len(t, tables[0].Rows, 3)
	assert.Equal(t, "Fecha", tables[0].Rows[0][0])
	assert.Equal(t, "01/03/2024", tables[0].Rows[1][0])
}

func TestCountPagesRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))

	_, err := CountPages(path)
	assert.Error(t, err)

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrUnreadable)
}

// centred lays out one run per cell, centred in its column
func centred(rows [][]string, left, top, colWidth, rowHeight float64) []textRun {
	out := runs(rows, left, top, colWidth, rowHeight)
	for i := range out {
		col := math.Floor((out[i].X - left) / colWidth)
		out[i].X = left + col*colWidth + (colWidth-out[i].W)/2
	}
	return out
}

func TestStreamCentredCellsKeepTheirColumn(t *testing.T) {
	lines := append([][]string{{"Relatorio semanal"}}, sampleRows...)
	p := newPage(1, 595, 842, centred(lines, 40, 700, 60, 14), nil)

	tables := p.ExtractTables(WithTableStrategy(StrategyText))
	require.Len(t, tables, 1)

	table := tables[0]
	require.Equal(t, 8, table.Columns())
	require.Len(t, table.Rows, 4)
	// "ALTO" starts left of where "OK" starts in the same column
	assert.Equal(t, "22ppm", table.Rows[2][2])
	assert.Equal(t, "ALTO", table.Rows[2][3])
	assert.Equal(t, sampleRows[1], table.Rows[1])
}

func TestLatticeKeepsBlankColumns(t *testing.T) {
	rows := [][]string{
		{"01/03/2024", "08:00", "18ppm", "", "23,5", "OK", "45%", "OK"},
		{"01/03/2024", "09:00", "22ppm", "", "24,1", "OK", "50%", "OK"},
	}
	p := newPage(1, 595, 842, runs(rows, 40, 700, 60, 20), grid(2, 8, 40, 700, 60, 20))

	tables := p.ExtractTables(WithTableStrategy(StrategyLines))
	require.Len(t, tables, 1)
	assert.Equal(t, 8, tables[0].Columns())
	assert.Equal(t, rows, tables[0].Rows)
}

func TestLayoutRunsSpreadsStackedGlyphs(t *testing.T) {
	// glyph by glyph at the string origin, as ledongthuc reports core fonts
	var stacked []textRun
	for _, r := range "23 ppm" {
		stacked = append(stacked, textRun{Font: "Helvetica", FontSize: 8, X: 100, Y: 500, S: string(r)})
	}

	laid := layoutRuns(stacked)
	require.Len(t, laid, 6)
	assert.Equal(t, 100.0, laid[0].X)
	assert.InDelta(t, 4.448, laid[0].W, 1e-9, "Helvetica digit is 556 units")
	assert.InDelta(t, 2.224, laid[2].W, 1e-9, "Helvetica space is 278 units")
	for i := 1; i < len(laid); i++ {
		assert.InDelta(t, laid[i-1].X+laid[i-1].W, laid[i].X, 1e-9)
	}

	p := newPage(1, 595, 842, stacked, nil)
	var texts []string
	for _, w := range p.ExtractWords() {
		texts = append(texts, w.Text)
	}
	assert.Equal(t, []string{"23", "ppm"}, texts)
}

func TestLayoutRunsKeepsReportedWidths(t *testing.T) {
	in := []textRun{
		{Font: "Helvetica", FontSize: 8, X: 10, Y: 10, W: 30, S: "OK"},
		{Font: "Helvetica", FontSize: 8, X: 10, Y: 10, W: 30, S: "OK"},
	}
	assert.Equal(t, in, layoutRuns(in))

	assert.InDelta(t, 5.0, glyphWidth("SomeEmbeddedSans", "A", 10), 1e-9)
}

func TestStreamOnGeneratedReport(t *testing.T) {
	path := fixture.WriteReport(t, filepath.Join(t.TempDir(), "aviario_5.pdf"), fixture.Report{
		Pages:     1,
		TableFrom: 1,
		Rows: [][]string{
			{"01/03/2024", "08:00", "18 ppm", "OK", "23,5 °C", "OK", "45 %", "OK"},
			{"01/03/2024", "09:00", "21 ppm", "ALTO", "24,0 °C", "OK", "47 %", "OK"},
			{"01/03/2024", "10:00", "9 ppm", "OK", "24,4 °C", "OK", "50 %", "OK"},
		},
	})

	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()
	page, err := doc.GetPage(0)
	require.NoError(t, err)

	for _, strategy := range []string{StrategyText, StrategyLines} {
		t.Run(strategy, func(t *testing.T) {
			tables := page.ExtractTables(WithTableStrategy(strategy))
			require.Len(t, tables, 1)
			rows := tables[0].Rows
			require.Len(t, rows, 4)
			assert.Equal(t, 8, tables[0].Columns())
			assert.Equal(t, "Rango_Temperatura", rows[0][5])
			assert.Equal(t, []string{"01/03/2024", "09:00", "21 ppm", "ALTO", "24,0 °C", "OK", "47 %", "OK"}, rows[2])
		})
	}
}
