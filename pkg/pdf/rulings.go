package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ReadRulings returns, per 1-based page number, the straight axis-aligned
// segments painted in the content stream of each requested page. Segments
// are in PDF user space. Pages that cannot be decoded are left out.
func ReadRulings(path string, pages []int) (map[int][]LineObject, error) {
	var ctx *model.Context
	err := guard("pdfcpu read", func() error {
		var rerr error
		ctx, rerr = api.ReadContextFile(path)
		if rerr != nil {
			return rerr
		}
		return api.ValidateContext(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	out := make(map[int][]LineObject, len(pages))
	for _, nr := range pages {
		if nr < 1 || nr > ctx.PageCount {
			continue
		}
		var content []byte
		err := guard(fmt.Sprintf("pdfcpu page %d content", nr), func() error {
			r, rerr := pdfcpu.ExtractPageContent(ctx, nr)
			if rerr != nil || r == nil {
				return rerr
			}
			content, rerr = io.ReadAll(r)
			return rerr
		})
		if err != nil || len(content) == 0 {
			continue
		}
		out[nr] = scanRulings(content)
	}
	return out, nil
}

// matrix is a PDF transformation matrix [a b c d e f]
type matrix struct {
	A, B, C, D, E, F float64
}

var identity = matrix{A: 1, D: 1}

// multiply returns m × n
func (m matrix) multiply(n matrix) matrix {
	return matrix{
		A: m.A*n.A + m.B*n.C,
		B: m.A*n.B + m.B*n.D,
		C: m.C*n.A + m.D*n.C,
		D: m.C*n.B + m.D*n.D,
		E: m.E*n.A + m.F*n.C + n.E,
		F: m.E*n.B + m.F*n.D + n.F,
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

// rulingScanner tracks just enough graphics state to place path segments
type rulingScanner struct {
	ctm       matrix
	stack     []matrix
	lineWidth float64
	curX      float64
	curY      float64
	startX    float64
	startY    float64
	pending   []LineObject
	lines     []LineObject
}

// scanRulings walks a content stream and collects painted straight segments
func scanRulings(content []byte) []LineObject {
	s := &rulingScanner{ctm: identity, lineWidth: 1}
	var operands []float64
	reader := bytes.NewReader(content)

	for reader.Len() > 0 {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}
		if isWhitespace(b) {
			continue
		}
		switch b {
		case '(':
			skipStringLiteral(reader)
			operands = operands[:0]
		case '<', '>', '[', ']', '{', '}':
			operands = operands[:0]
		case '/':
			readToken(reader)
			operands = operands[:0]
		case '%':
			skipComment(reader)
		default:
			reader.UnreadByte()
			token := readToken(reader)
			if token == "" {
				// lone delimiter such as ')'
				reader.ReadByte()
				continue
			}
			if v, err := strconv.ParseFloat(token, 64); err == nil {
				operands = append(operands, v)
				continue
			}
			if token == "BI" {
				skipInlineImage(reader)
			} else {
				s.operator(token, operands)
			}
			operands = operands[:0]
		}
	}
	return s.lines
}

func (s *rulingScanner) operator(op string, args []float64) {
	switch op {
	case "q":
		s.stack = append(s.stack, s.ctm)
	case "Q":
		if n := len(s.stack); n > 0 {
			s.ctm = s.stack[n-1]
			s.stack = s.stack[:n-1]
		}
	case "cm":
		if len(args) >= 6 {
			m := matrix{A: args[0], B: args[1], C: args[2], D: args[3], E: args[4], F: args[5]}
			s.ctm = m.multiply(s.ctm)
		}
	case "w":
		if len(args) >= 1 {
			s.lineWidth = args[0]
		}
	case "m":
		if len(args) >= 2 {
			s.curX, s.curY = s.ctm.apply(args[0], args[1])
			s.startX, s.startY = s.curX, s.curY
		}
	case "l":
		if len(args) >= 2 {
			x, y := s.ctm.apply(args[0], args[1])
			s.segment(s.curX, s.curY, x, y)
			s.curX, s.curY = x, y
		}
	case "h":
		s.segment(s.curX, s.curY, s.startX, s.startY)
		s.curX, s.curY = s.startX, s.startY
	case "re":
		if len(args) >= 4 {
			s.rect(args[0], args[1], args[2], args[3])
		}
	case "S", "s", "f", "F", "f*", "B", "B*", "b", "b*":
		s.lines = append(s.lines, s.pending...)
		s.pending = s.pending[:0]
	case "n":
		s.pending = s.pending[:0]
	}
}

// segment queues an axis-aligned segment; diagonals and curves are ignored
func (s *rulingScanner) segment(x0, y0, x1, y1 float64) {
	const tolerance = 0.5
	if abs(x1-x0) < tolerance && abs(y1-y0) < tolerance {
		return
	}
	if abs(y1-y0) < tolerance || abs(x1-x0) < tolerance {
		s.pending = append(s.pending, LineObject{X0: x0, Y0: y0, X1: x1, Y1: y1, Width: s.lineWidth})
	}
}

// rect queues the edges of a rectangle, or its centre line when it is a hairline
func (s *rulingScanner) rect(x, y, w, h float64) {
	const hairline = 2.0
	x0, y0 := s.ctm.apply(x, y)
	x1, y1 := s.ctm.apply(x+w, y+h)
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	switch {
	case y1-y0 < hairline:
		mid := (y0 + y1) / 2
		s.segment(x0, mid, x1, mid)
	case x1-x0 < hairline:
		mid := (x0 + x1) / 2
		s.segment(mid, y0, mid, y1)
	default:
		s.segment(x0, y0, x1, y0)
		s.segment(x0, y1, x1, y1)
		s.segment(x0, y0, x0, y1)
		s.segment(x1, y0, x1, y1)
	}
	s.curX, s.curY = x0, y0
	s.startX, s.startY = x0, y0
}

func skipStringLiteral(reader *bytes.Reader) {
	depth := 1
	for reader.Len() > 0 {
		b, _ := reader.ReadByte()
		switch b {
		case '\\':
			reader.ReadByte()
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// skipInlineImage discards binary image data up to the EI operator
func skipInlineImage(reader *bytes.Reader) {
	var prev2, prev byte
	for reader.Len() > 0 {
		b, _ := reader.ReadByte()
		if prev2 != 0 && isWhitespace(prev2) && prev == 'E' && b == 'I' {
			return
		}
		prev2, prev = prev, b
	}
}

func readToken(reader *bytes.Reader) string {
	var result []byte
	for reader.Len() > 0 {
		b, _ := reader.ReadByte()
		if isDelimiter(b) || isWhitespace(b) {
			reader.UnreadByte()
			break
		}
		result = append(result, b)
	}
	return string(result)
}

func skipComment(reader *bytes.Reader) {
	for reader.Len() > 0 {
		b, _ := reader.ReadByte()
		if b == '\n' || b == '\r' {
			return
		}
	}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}
