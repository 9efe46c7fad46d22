package source

import "fmt"

// ReadError marks a source file that could not be read. The scan skips the
// file and keeps going.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ExtractionError marks a rulebook page whose text could not be extracted.
// Only the page is skipped; the rest of the document is still indexed.
type ExtractionError struct {
	Path string
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s page %d: %v", e.Path, e.Page, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
