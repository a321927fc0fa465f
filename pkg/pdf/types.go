package pdf

// BoundingBox represents a rectangular area in top-left page coordinates
type BoundingBox struct {
	X0 float64 // Left
	Y0 float64 // Top
	X1 float64 // Right
	Y1 float64 // Bottom
}

// Width returns the width of the bounding box
func (b BoundingBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the height of the bounding box
func (b BoundingBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Contains checks if a point is within the bounding box
func (b BoundingBox) Contains(x, y float64) bool {
	return x >= b.X0 && x <= b.X1 && y >= b.Y0 && y <= b.Y1
}

// Intersects checks if two bounding boxes intersect
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return !(b.X1 < other.X0 || b.X0 > other.X1 || b.Y1 < other.Y0 || b.Y0 > other.Y1)
}

// Objects is the set of page objects the table extractor works from
type Objects struct {
	Chars []CharObject
	Lines []LineObject
	Rects []RectObject
}

// CharObject is a single glyph with its position
type CharObject struct {
	Text     string
	Font     string
	FontSize float64
	X0       float64
	Y0       float64
	X1       float64
	Y1       float64
	Width    float64
}

// LineObject is a straight ruling segment
type LineObject struct {
	X0    float64
	Y0    float64
	X1    float64
	Y1    float64
	Width float64
}

// Horizontal reports whether the segment is horizontal within tolerance
func (l LineObject) Horizontal(tolerance float64) bool {
	return abs(l.Y1-l.Y0) < tolerance
}

// Vertical reports whether the segment is vertical within tolerance
func (l LineObject) Vertical(tolerance float64) bool {
	return abs(l.X1-l.X0) < tolerance
}

// RectObject is a rectangle drawn with the re operator
type RectObject struct {
	X0 float64
	Y0 float64
	X1 float64
	Y1 float64
}

// Word is a run of characters without a significant gap
type Word struct {
	Text string
	X0   float64
	Y0   float64
	X1   float64
	Y1   float64
}

// Table represents an extracted table
type Table struct {
	Rows       [][]string
	BBox       BoundingBox
	PageNumber int
}

// Columns returns the widest row length
func (t Table) Columns() int {
	n := 0
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// Table detection strategies
const (
	StrategyLines = "lines"
	StrategyText  = "text"
)

// TableExtractionOption is a function that modifies table extraction behavior
type TableExtractionOption func(*tableExtractionConfig)

type tableExtractionConfig struct {
	Strategy      string
	MinTableSize  int
	TextTolerance float64
	SnapTolerance float64
	Rulings       []LineObject
}

func defaultTableConfig() *tableExtractionConfig {
	return &tableExtractionConfig{
		Strategy:      StrategyLines,
		MinTableSize:  2,
		TextTolerance: 3.0,
		SnapTolerance: 3.0,
	}
}

// WithTableStrategy selects line-based (lattice) or text-based (stream) detection
func WithTableStrategy(strategy string) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.Strategy = strategy
	}
}

// WithMinTableSize sets the minimum number of rows for a table
func WithMinTableSize(size int) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.MinTableSize = size
	}
}

// WithTextTolerance sets the tolerance for grouping text into lines
func WithTextTolerance(tolerance float64) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.TextTolerance = tolerance
	}
}

// WithRulings adds ruling segments read from the page content stream.
// Segments are in PDF user space (bottom-left origin) and are flipped
// into page coordinates by the page.
func WithRulings(lines []LineObject) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.Rulings = append(c.Rulings, lines...)
	}
}

// WordExtractionOption is a function that modifies word extraction behavior
type WordExtractionOption func(*wordExtractionConfig)

type wordExtractionConfig struct {
	XTolerance float64
	YTolerance float64
}

// WithXTolerance sets the horizontal gap that splits words
func WithXTolerance(tolerance float64) WordExtractionOption {
	return func(c *wordExtractionConfig) {
		c.XTolerance = tolerance
	}
}

// WithYTolerance sets the vertical tolerance for grouping words into lines
func WithYTolerance(tolerance float64) WordExtractionOption {
	return func(c *wordExtractionConfig) {
		c.YTolerance = tolerance
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
