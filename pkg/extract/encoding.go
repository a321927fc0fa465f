package extract

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Encoding names how raw cell bytes are turned into text
type Encoding string

const (
	// UTF8 accepts only cells that are valid UTF-8
	UTF8 Encoding = "utf-8"
	// Latin1 decodes cells that are not valid UTF-8 as Windows-1252
	Latin1 Encoding = "latin-1"
)

// DefaultEncoding is tried first; AlternateEncoding once after a mismatch
const (
	DefaultEncoding   = UTF8
	AlternateEncoding = Latin1
)

// ErrEncodingMismatch marks text that is not valid in the requested encoding
var ErrEncodingMismatch = errors.New("text does not match encoding")

// DecodeError reports the first cell that failed to decode
type DecodeError struct {
	Encoding Encoding
	Page     int
	Raw      string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("page %d: cell %q is not valid %s", e.Page, e.Raw, e.Encoding)
}

func (e *DecodeError) Unwrap() error {
	return ErrEncodingMismatch
}

// Decode converts one raw cell. Valid UTF-8 passes through under both
// encodings, so cells a backend already decoded are never garbled.
// The result is NFC-normalised.
func (e Encoding) Decode(raw string) (string, error) {
	if utf8.ValidString(raw) {
		return norm.NFC.String(raw), nil
	}
	switch e {
	case Latin1:
		s, err := charmap.Windows1252.NewDecoder().String(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrEncodingMismatch, err)
		}
		return norm.NFC.String(s), nil
	default:
		return "", ErrEncodingMismatch
	}
}

// DecodeRows decodes every cell of a table found on page
func (e Encoding) DecodeRows(rows [][]string, page int) ([][]string, error) {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			s, err := e.Decode(cell)
			if err != nil {
				return nil, &DecodeError{Encoding: e, Page: page, Raw: cell}
			}
			out[i][j] = s
		}
	}
	return out, nil
}
