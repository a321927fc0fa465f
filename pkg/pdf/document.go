package pdf

import (
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrUnreadable is returned when no backend could parse the file
var ErrUnreadable = errors.New("pdf: no backend could read the document")

// Opener opens a document with one particular backend
type Opener func(path string) (Document, error)

// Backends lists the parsing backends in the order Open tries them
var Backends = []Opener{
	OpenWithLedongthuc,
	OpenWithDslipak,
}

// Open opens a PDF file, falling back through Backends
func Open(path string) (Document, error) {
	var errs []error
	for _, open := range Backends {
		doc, err := open(path)
		if err == nil {
			return doc, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w: %w", ErrUnreadable, errors.Join(errs...))
}

// CountPages returns the number of pages of the document at path.
// pdfcpu is asked first since it validates the cross-reference table;
// damaged files it refuses are retried with the more lenient text backend.
func CountPages(path string) (int, error) {
	var n int
	err := guard("pdfcpu page count", func() error {
		var cerr error
		n, cerr = api.PageCountFile(path)
		return cerr
	})
	if err == nil && n > 0 {
		return n, nil
	}

	doc, lerr := OpenWithLedongthuc(path)
	if lerr != nil {
		return 0, fmt.Errorf("count pages: %w", errors.Join(err, lerr))
	}
	defer doc.Close()
	if n = doc.PageCount(); n <= 0 {
		return 0, fmt.Errorf("count pages: document reports %d pages", n)
	}
	return n, nil
}

// guard runs fn and converts a panic raised by a parsing library into an
// error. The PDF libraries panic on malformed streams.
func guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: recovered from panic: %v", op, r)
		}
	}()
	return fn()
}
