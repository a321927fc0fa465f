package pdf

import (
	"sort"
	"strings"
)

// textRun is one positioned text item as reported by a backend, in PDF
// user space (origin bottom-left, Y at the baseline).
type textRun struct {
	Font     string
	FontSize float64
	X        float64
	Y        float64
	W        float64
	S        string
}

// rectRun is one rectangle as reported by a backend, in PDF user space.
type rectRun struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// page is the backend-neutral Page implementation. Backends only convert
// their own content types into runs.
type page struct {
	number  int
	width   float64
	height  float64
	objects Objects
}

func newPage(number int, width, height float64, texts []textRun, rects []rectRun) *page {
	p := &page{
		number: number,
		width:  width,
		height: height,
	}
	p.addText(layoutRuns(texts))
	p.addRects(rects)
	return p
}

// addText splits runs into characters and flips Y so that Y grows downward.
func (p *page) addText(texts []textRun) {
	for _, text := range texts {
		chars := []rune(text.S)
		if len(chars) == 0 {
			continue
		}

		fontHeight := text.FontSize
		if fontHeight <= 0 {
			fontHeight = 10
		}
		// baseline sits at roughly 80% of the glyph height
		top := p.height - (text.Y + fontHeight*0.8)

		charWidth := text.W / float64(len(chars))
		x := text.X
		for _, ch := range chars {
			if ch != ' ' {
				p.objects.Chars = append(p.objects.Chars, CharObject{
					Text:     string(ch),
					Font:     text.Font,
					FontSize: fontHeight,
					X0:       x,
					Y0:       top,
					X1:       x + charWidth,
					Y1:       top + fontHeight,
					Width:    charWidth,
				})
			}
			x += charWidth
		}
	}
}

// addRects keeps real rectangles and turns hairline rectangles, which many
// report generators use to draw table rules, into line segments.
func (p *page) addRects(rects []rectRun) {
	const hairline = 2.0
	for _, r := range rects {
		x0, x1 := r.MinX, r.MaxX
		y0, y1 := p.height-r.MaxY, p.height-r.MinY
		if x0 > x1 {
			x0, x1 = x1, x0
		}
		if y0 > y1 {
			y0, y1 = y1, y0
		}
		switch {
		case y1-y0 < hairline:
			mid := (y0 + y1) / 2
			p.objects.Lines = append(p.objects.Lines, LineObject{X0: x0, Y0: mid, X1: x1, Y1: mid, Width: y1 - y0})
		case x1-x0 < hairline:
			mid := (x0 + x1) / 2
			p.objects.Lines = append(p.objects.Lines, LineObject{X0: mid, Y0: y0, X1: mid, Y1: y1, Width: x1 - x0})
		default:
			p.objects.Rects = append(p.objects.Rects, RectObject{X0: x0, Y0: y0, X1: x1, Y1: y1})
		}
	}
}

// flipLines converts user-space segments into page coordinates.
func (p *page) flipLines(lines []LineObject) []LineObject {
	out := make([]LineObject, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineObject{
			X0:    l.X0,
			Y0:    p.height - l.Y0,
			X1:    l.X1,
			Y1:    p.height - l.Y1,
			Width: l.Width,
		})
	}
	return out
}

// GetPageNumber returns the page number (1-based)
func (p *page) GetPageNumber() int {
	return p.number
}

// GetWidth returns the page width
func (p *page) GetWidth() float64 {
	return p.width
}

// GetHeight returns the page height
func (p *page) GetHeight() float64 {
	return p.height
}

// GetObjects returns all objects on the page
func (p *page) GetObjects() Objects {
	return p.objects
}

// ExtractTables extracts tables from the page
func (p *page) ExtractTables(opts ...TableExtractionOption) []Table {
	config := defaultTableConfig()
	for _, opt := range opts {
		opt(config)
	}
	tables := newTableExtractor(p, config).ExtractTables()
	for i := range tables {
		tables[i].PageNumber = p.number
	}
	return tables
}

// ExtractWords extracts individual words from the page
func (p *page) ExtractWords(opts ...WordExtractionOption) []Word {
	config := &wordExtractionConfig{
		XTolerance: 3.0,
		YTolerance: 3.0,
	}
	for _, opt := range opts {
		opt(config)
	}

	if len(p.objects.Chars) == 0 {
		return nil
	}

	sorted := make([]CharObject, len(p.objects.Chars))
	copy(sorted, p.objects.Chars)
	sort.SliceStable(sorted, func(i, j int) bool {
		if abs(sorted[i].Y0-sorted[j].Y0) > config.YTolerance {
			return sorted[i].Y0 < sorted[j].Y0
		}
		return sorted[i].X0 < sorted[j].X0
	})

	var lines [][]CharObject
	var current []CharObject
	currentY := sorted[0].Y0
	for _, char := range sorted {
		if abs(char.Y0-currentY) > config.YTolerance {
			if len(current) > 0 {
				lines = append(lines, current)
			}
			current = []CharObject{char}
			currentY = char.Y0
			continue
		}
		current = append(current, char)
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}

	var words []Word
	for _, line := range lines {
		words = append(words, wordsFromLine(line, config.XTolerance)...)
	}
	return words
}

// wordsFromLine splits a line of characters on horizontal gaps
func wordsFromLine(line []CharObject, xTolerance float64) []Word {
	sort.SliceStable(line, func(i, j int) bool {
		return line[i].X0 < line[j].X0
	})

	var words []Word
	var current []CharObject
	for i, char := range line {
		if i > 0 {
			gap := char.X0 - line[i-1].X1
			if gap > xTolerance || gap > char.Width*0.3 {
				words = append(words, makeWord(current))
				current = nil
			}
		}
		current = append(current, char)
	}
	if len(current) > 0 {
		words = append(words, makeWord(current))
	}
	return words
}

func makeWord(chars []CharObject) Word {
	var text strings.Builder
	w := Word{X0: chars[0].X0, Y0: chars[0].Y0, X1: chars[0].X1, Y1: chars[0].Y1}
	for _, char := range chars {
		text.WriteString(char.Text)
		w.X0 = min(w.X0, char.X0)
		w.Y0 = min(w.Y0, char.Y0)
		w.X1 = max(w.X1, char.X1)
		w.Y1 = max(w.Y1, char.Y1)
	}
	w.Text = text.String()
	return w
}
