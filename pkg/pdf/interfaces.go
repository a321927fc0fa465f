package pdf

// Document represents an opened PDF document
type Document interface {
	// GetPage returns a specific page by index (0-based)
	GetPage(index int) (Page, error)

	// PageCount returns the total number of pages
	PageCount() int

	// Backend names the library that parsed the document
	Backend() string

	// Close releases the file handle held by the document
	Close() error
}

// Page represents a single page in a PDF document
type Page interface {
	// GetPageNumber returns the page number (1-based)
	GetPageNumber() int

	// GetWidth returns the page width
	GetWidth() float64

	// GetHeight returns the page height
	GetHeight() float64

	// GetObjects returns the chars, lines and rects on the page
	GetObjects() Objects

	// ExtractWords groups characters into words
	ExtractWords(opts ...WordExtractionOption) []Word

	// ExtractTables extracts tables from the page
	ExtractTables(opts ...TableExtractionOption) []Table
}
