package pdf

import (
	"math"
	"sort"
	"strings"
)

// tableExtractor finds tables on one page using either ruling lines
// (lattice) or text alignment (stream)
type tableExtractor struct {
	page          *page
	strategy      string
	minTableSize  int
	textTolerance float64
	snapTolerance float64
	rulings       []LineObject
}

func newTableExtractor(p *page, config *tableExtractionConfig) *tableExtractor {
	return &tableExtractor{
		page:          p,
		strategy:      config.Strategy,
		minTableSize:  config.MinTableSize,
		textTolerance: config.TextTolerance,
		snapTolerance: config.SnapTolerance,
		rulings:       p.flipLines(config.Rulings),
	}
}

// ExtractTables runs the configured strategy only. Falling back to another
// strategy is the caller's decision.
func (te *tableExtractor) ExtractTables() []Table {
	if te.strategy == StrategyText {
		return te.extractTextBasedTables()
	}
	return te.extractLineBasedTables()
}

// extractLineBasedTables builds cell grids from ruling lines and rectangle edges
func (te *tableExtractor) extractLineBasedTables() []Table {
	objects := te.page.GetObjects()

	lines := make([]LineObject, 0, len(objects.Lines)+len(te.rulings)+4*len(objects.Rects))
	lines = append(lines, objects.Lines...)
	lines = append(lines, te.rulings...)
	for _, rect := range objects.Rects {
		lines = append(lines,
			LineObject{X0: rect.X0, Y0: rect.Y0, X1: rect.X1, Y1: rect.Y0},
			LineObject{X0: rect.X0, Y0: rect.Y1, X1: rect.X1, Y1: rect.Y1},
			LineObject{X0: rect.X0, Y0: rect.Y0, X1: rect.X0, Y1: rect.Y1},
			LineObject{X0: rect.X1, Y0: rect.Y0, X1: rect.X1, Y1: rect.Y1},
		)
	}
	lines = FilterPageBorderLines(DeduplicateLines(lines), te.page.width, te.page.height)
	hLines, vLines := ConsolidateTableLines(lines, te.snapTolerance)

	var tables []Table
	for _, region := range te.findTableRegions(hLines, vLines) {
		table := te.extractTableFromRegion(region, objects.Chars)
		if len(table.Rows) >= te.minTableSize && table.Columns() > 1 {
			tables = append(tables, table)
		}
	}
	sort.SliceStable(tables, func(i, j int) bool {
		return tables[i].BBox.Y0 < tables[j].BBox.Y0
	})
	return tables
}

// tableRegion is a connected grid of rulings
type tableRegion struct {
	BBox   BoundingBox
	HLines []float64 // Y positions of horizontal rules
	VLines []float64 // X positions of vertical rules
	Cells  [][]BoundingBox
}

// findTableRegions groups rulings into connected components. Each component
// whose rules cross in both directions becomes one region.
func (te *tableExtractor) findTableRegions(hLines, vLines []LineObject) []tableRegion {
	parent := make([]int, len(hLines)+len(vLines))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	tol := te.snapTolerance
	for i, h := range hLines {
		for j, v := range vLines {
			if v.X0 >= h.X0-tol && v.X0 <= h.X1+tol && h.Y0 >= v.Y0-tol && h.Y0 <= v.Y1+tol {
				a, b := find(i), find(len(hLines)+j)
				if a != b {
					parent[a] = b
				}
			}
		}
	}

	type component struct {
		h, v []LineObject
	}
	components := map[int]*component{}
	var order []int
	get := func(root int) *component {
		c, ok := components[root]
		if !ok {
			c = &component{}
			components[root] = c
			order = append(order, root)
		}
		return c
	}
	for i, h := range hLines {
		c := get(find(i))
		c.h = append(c.h, h)
	}
	for j, v := range vLines {
		c := get(find(len(hLines) + j))
		c.v = append(c.v, v)
	}

	var regions []tableRegion
	for _, root := range order {
		c := components[root]
		if len(c.h) < 2 || len(c.v) < 2 {
			continue
		}
		if region := te.createTableRegion(c.h, c.v); region != nil {
			regions = append(regions, *region)
		}
	}
	return regions
}

// createTableRegion creates a cell grid from the rules of one component
func (te *tableExtractor) createTableRegion(hLines, vLines []LineObject) *tableRegion {
	hPositions := make([]float64, 0, len(hLines))
	for _, l := range hLines {
		hPositions = append(hPositions, l.Y0)
	}
	vPositions := make([]float64, 0, len(vLines))
	for _, l := range vLines {
		vPositions = append(vPositions, l.X0)
	}
	hPositions = clusterPositions(hPositions, te.snapTolerance)
	vPositions = clusterPositions(vPositions, te.snapTolerance)
	if len(hPositions) < 2 || len(vPositions) < 2 {
		return nil
	}

	cells := make([][]BoundingBox, len(hPositions)-1)
	for i := range cells {
		cells[i] = make([]BoundingBox, len(vPositions)-1)
		for j := range cells[i] {
			cells[i][j] = BoundingBox{
				X0: vPositions[j],
				Y0: hPositions[i],
				X1: vPositions[j+1],
				Y1: hPositions[i+1],
			}
		}
	}

	return &tableRegion{
		BBox: BoundingBox{
			X0: vPositions[0],
			Y0: hPositions[0],
			X1: vPositions[len(vPositions)-1],
			Y1: hPositions[len(hPositions)-1],
		},
		HLines: hPositions,
		VLines: vPositions,
		Cells:  cells,
	}
}

// extractTableFromRegion fills the grid with text and drops empty rows.
// Every drawn column is kept, blank or not.
func (te *tableExtractor) extractTableFromRegion(region tableRegion, chars []CharObject) Table {
	var inside []CharObject
	for _, char := range chars {
		if region.BBox.Contains((char.X0+char.X1)/2, (char.Y0+char.Y1)/2) {
			inside = append(inside, char)
		}
	}

	rows := make([][]string, 0, len(region.Cells))
	for _, cellRow := range region.Cells {
		row := make([]string, len(cellRow))
		filled := false
		for j, cell := range cellRow {
			row[j] = te.extractCellText(cell, inside)
			if row[j] != "" {
				filled = true
			}
		}
		if filled {
			rows = append(rows, row)
		}
	}

	return Table{
		Rows: rows,
		BBox: region.BBox,
	}
}

// extractCellText joins the characters whose centre lies in the cell
func (te *tableExtractor) extractCellText(cell BoundingBox, chars []CharObject) string {
	var cellChars []CharObject
	for _, char := range chars {
		if cell.Contains((char.X0+char.X1)/2, (char.Y0+char.Y1)/2) {
			cellChars = append(cellChars, char)
		}
	}
	if len(cellChars) == 0 {
		return ""
	}

	sort.SliceStable(cellChars, func(i, j int) bool {
		if math.Abs(cellChars[i].Y0-cellChars[j].Y0) > te.textTolerance {
			return cellChars[i].Y0 < cellChars[j].Y0
		}
		return cellChars[i].X0 < cellChars[j].X0
	})

	var text strings.Builder
	lastY, lastX := cellChars[0].Y0, cellChars[0].X0
	for i, char := range cellChars {
		if i > 0 {
			if math.Abs(char.Y0-lastY) > te.textTolerance {
				text.WriteByte('\n')
			} else if char.X0-lastX > char.Width*0.3 {
				text.WriteByte(' ')
			}
		}
		text.WriteString(char.Text)
		lastY, lastX = char.Y0, char.X1
	}
	return strings.TrimSpace(text.String())
}

// wordLine is a line of words sharing a baseline
type wordLine struct {
	Words []Word
	BBox  BoundingBox
	Y     float64
}

// extractTextBasedTables infers columns from the whitespace gutters
// between words
func (te *tableExtractor) extractTextBasedTables() []Table {
	words := te.page.ExtractWords(WithYTolerance(te.textTolerance))
	if len(words) == 0 {
		return nil
	}

	lines := te.groupWordsIntoLines(words)
	first, last, columns := te.findColumnSpans(lines)
	if len(columns) < 2 || last-first+1 < te.minTableSize {
		return nil
	}

	table := te.createTableFromWordLines(lines[first:last+1], columns)
	if len(table.Rows) < te.minTableSize || table.Columns() < 2 {
		return nil
	}
	return []Table{table}
}

// groupWordsIntoLines groups words into lines based on Y position
func (te *tableExtractor) groupWordsIntoLines(words []Word) []wordLine {
	sorted := make([]Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y0 < sorted[j].Y0
	})

	var lines []wordLine
	current := wordLine{Words: []Word{sorted[0]}, Y: sorted[0].Y0}
	for _, word := range sorted[1:] {
		if math.Abs(word.Y0-current.Y) < te.textTolerance {
			current.Words = append(current.Words, word)
			continue
		}
		lines = append(lines, finalizeWordLine(current))
		current = wordLine{Words: []Word{word}, Y: word.Y0}
	}
	return append(lines, finalizeWordLine(current))
}

func finalizeWordLine(line wordLine) wordLine {
	sort.SliceStable(line.Words, func(i, j int) bool {
		return line.Words[i].X0 < line.Words[j].X0
	})
	bbox := BoundingBox{
		X0: line.Words[0].X0,
		Y0: line.Words[0].Y0,
		X1: line.Words[len(line.Words)-1].X1,
		Y1: line.Words[0].Y1,
	}
	for _, word := range line.Words {
		bbox.Y0 = min(bbox.Y0, word.Y0)
		bbox.Y1 = max(bbox.Y1, word.Y1)
	}
	line.BBox = bbox
	return line
}

// span is a horizontal extent on the page
type span struct {
	X0, X1 float64
}

// phrases merges the words of a line that are no further apart than the
// text tolerance, so a cell like "18 ppm" is one phrase
func (te *tableExtractor) phrases(line wordLine) []span {
	var out []span
	for _, word := range line.Words {
		if n := len(out); n > 0 && word.X0-out[n-1].X1 <= te.textTolerance {
			out[n-1].X1 = max(out[n-1].X1, word.X1)
			continue
		}
		out = append(out, span{X0: word.X0, X1: word.X1})
	}
	return out
}

// findColumnSpans picks the table lines, those with at least half as many
// phrases as the busiest line, and returns the first and last of them with
// the columns they define. A column is a run of overlapping phrases across
// all table lines; columns are separated by gutters no phrase crosses.
func (te *tableExtractor) findColumnSpans(lines []wordLine) (first, last int, columns []span) {
	perLine := make([][]span, len(lines))
	busiest := 0
	for i, line := range lines {
		perLine[i] = te.phrases(line)
		busiest = max(busiest, len(perLine[i]))
	}
	threshold := max(2, (busiest+1)/2)

	first, last = -1, -1
	var all []span
	for i, ps := range perLine {
		if len(ps) < threshold {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
		all = append(all, ps...)
	}
	if first < 0 {
		return 0, -1, nil
	}

	sort.Slice(all, func(i, j int) bool { return all[i].X0 < all[j].X0 })
	for _, s := range all {
		if n := len(columns); n > 0 && s.X0 <= columns[n-1].X1 {
			columns[n-1].X1 = max(columns[n-1].X1, s.X1)
			continue
		}
		columns = append(columns, s)
	}
	return first, last, columns
}

// createTableFromWordLines assigns every word to the column it lies in
// and trims title and footer lines off both ends
func (te *tableExtractor) createTableFromWordLines(lines []wordLine, columns []span) Table {
	rows := make([][]string, len(lines))
	for i, line := range lines {
		rows[i] = make([]string, len(columns))
		for _, word := range line.Words {
			col := findWordColumn(word, columns)
			if rows[i][col] != "" {
				rows[i][col] += " "
			}
			rows[i][col] += word.Text
		}
	}

	half := (len(columns) + 1) / 2
	start, end := 0, len(rows)
	for start < end && filledCells(rows[start]) < half {
		start++
	}
	for end > start && filledCells(rows[end-1]) < half {
		end--
	}
	if start == end {
		return Table{}
	}

	bbox := lines[start].BBox
	for _, line := range lines[start+1 : end] {
		bbox.X0 = min(bbox.X0, line.BBox.X0)
		bbox.Y0 = min(bbox.Y0, line.BBox.Y0)
		bbox.X1 = max(bbox.X1, line.BBox.X1)
		bbox.Y1 = max(bbox.Y1, line.BBox.Y1)
	}

	return Table{
		Rows: removeEmptyColumns(rows[start:end]),
		BBox: bbox,
	}
}

// findWordColumn returns the column holding the word's centre, or the
// nearest one for a word sitting in a gutter
func findWordColumn(word Word, columns []span) int {
	mid := (word.X0 + word.X1) / 2
	best, dist := 0, math.Inf(1)
	for i, c := range columns {
		if mid >= c.X0 && mid <= c.X1 {
			return i
		}
		if d := min(math.Abs(mid-c.X0), math.Abs(mid-c.X1)); d < dist {
			best, dist = i, d
		}
	}
	return best
}

func filledCells(row []string) int {
	n := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}

// removeEmptyColumns removes columns that are empty in every row
func removeEmptyColumns(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	hasContent := make([]bool, width)
	for _, row := range rows {
		for i, cell := range row {
			if strings.TrimSpace(cell) != "" {
				hasContent[i] = true
			}
		}
	}

	out := make([][]string, len(rows))
	for r, row := range rows {
		newRow := make([]string, 0, width)
		for i, cell := range row {
			if hasContent[i] {
				newRow = append(newRow, cell)
			}
		}
		out[r] = newRow
	}
	return out
}
