package pdf

import (
	"fmt"
	"os"

	gopdf "github.com/dslipak/pdf"
)

// DsliPakDocument implements the Document interface using dslipak/pdf
type DsliPakDocument struct {
	file   *os.File
	reader *gopdf.Reader
	pages  map[int]Page
}

// OpenWithDslipak opens a PDF file using the dslipak/pdf library
func OpenWithDslipak(path string) (doc Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	var r *gopdf.Reader
	err = guard("dslipak open", func() error {
		var rerr error
		r, rerr = gopdf.NewReader(f, info.Size())
		return rerr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with dslipak: %w", err)
	}

	return &DsliPakDocument{
		file:   f,
		reader: r,
		pages:  make(map[int]Page),
	}, nil
}

// Backend names the parsing library
func (d *DsliPakDocument) Backend() string {
	return "dslipak"
}

// PageCount returns the total number of pages
func (d *DsliPakDocument) PageCount() int {
	return d.reader.NumPage()
}

// GetPage returns a specific page by index (0-based)
func (d *DsliPakDocument) GetPage(index int) (Page, error) {
	if index < 0 || index >= d.PageCount() {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, d.PageCount())
	}
	if p, ok := d.pages[index]; ok {
		return p, nil
	}

	var p Page
	err := guard(fmt.Sprintf("dslipak page %d", index+1), func() error {
		dp := d.reader.Page(index + 1)
		if dp.V.IsNull() {
			return fmt.Errorf("page %d has no dictionary", index+1)
		}

		width, height := 595.0, 842.0
		// MediaBox is inheritable
		for v := dp.V; !v.IsNull(); v = v.Key("Parent") {
			mediaBox := v.Key("MediaBox")
			if mediaBox.Kind() == gopdf.Array && mediaBox.Len() == 4 {
				width = mediaBox.Index(2).Float64() - mediaBox.Index(0).Float64()
				height = mediaBox.Index(3).Float64() - mediaBox.Index(1).Float64()
				break
			}
		}

		content := dp.Content()
		texts := make([]textRun, 0, len(content.Text))
		for _, t := range content.Text {
			texts = append(texts, textRun{Font: t.Font, FontSize: t.FontSize, X: t.X, Y: t.Y, W: t.W, S: t.S})
		}
		rects := make([]rectRun, 0, len(content.Rect))
		for _, r := range content.Rect {
			rects = append(rects, rectRun{MinX: r.Min.X, MinY: r.Min.Y, MaxX: r.Max.X, MaxY: r.Max.Y})
		}
		p = newPage(index+1, width, height, texts, rects)
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.pages[index] = p
	return p, nil
}

// Close releases resources associated with the document
func (d *DsliPakDocument) Close() error {
	d.pages = nil
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}
