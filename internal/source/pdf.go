package source

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extraction is the per-page output of a rulebook extractor. Failed holds
// ExtractionErrors for pages that could not be read.
type Extraction struct {
	Pages  []Page
	Failed []*ExtractionError
}

// PageExtractor turns a paginated document into per-page text. A page
// failure must not abort extraction of the remaining pages.
type PageExtractor interface {
	ExtractPages(path string) (*Extraction, error)
}

// PDFExtractor extracts plain text from PDF files.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF page extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractPages reads every page of the PDF at path. Blank pages are dropped;
// unreadable pages are recorded and skipped.
func (e *PDFExtractor) ExtractPages(path string) (*Extraction, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	extraction := &Extraction{}
	total := reader.NumPage()

	for num := 1; num <= total; num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}

		text, err := extractPageText(page)
		if err != nil {
			extraction.Failed = append(extraction.Failed, &ExtractionError{Path: path, Page: num, Err: err})
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		extraction.Pages = append(extraction.Pages, Page{Number: num, Text: text})
	}

	return extraction, nil
}

// extractPageText isolates the library call so a panic inside the PDF parser
// (malformed content streams do that) degrades to a page-level error.
func extractPageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return page.GetPlainText(nil)
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("pdf parser panic: %v", e.value)
}
