package pdf

import (
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"golang.org/x/text/encoding/charmap"
)

// unknownGlyphWidth is the advance, in thousandths of an em, assumed for
// glyphs no metrics cover
const unknownGlyphWidth = 500

// layoutRuns fills in widths for runs a backend reported without one and
// spreads them along the baseline. Standard 14 fonts written without a
// /Widths array make ledongthuc and dslipak report every glyph of a string
// at the string's origin with zero width.
func layoutRuns(texts []textRun) []textRun {
	out := make([]textRun, len(texts))
	for i, t := range texts {
		if t.W > 0 {
			out[i] = t
			continue
		}
		t.W = glyphWidth(t.Font, t.S, t.FontSize)
		if i > 0 {
			prev := texts[i-1]
			if prev.W <= 0 && prev.X == t.X && prev.Y == t.Y {
				t.X = out[i-1].X + out[i-1].W
			}
		}
		out[i] = t
	}
	return out
}

// glyphWidth returns the advance of s at size points, using the standard
// 14 font metrics for WinAnsi glyphs
func glyphWidth(fontName, s string, size float64) float64 {
	if size <= 0 {
		size = 10
	}
	core := font.IsCoreFont(fontName)
	var units int
	for _, r := range s {
		code, ok := charmap.Windows1252.EncodeRune(r)
		if core && ok {
			units += font.CharWidth(fontName, rune(code))
		} else {
			units += unknownGlyphWidth
		}
	}
	return float64(units) / 1000 * size
}
