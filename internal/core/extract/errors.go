package extract

import (
	"errors"
	"fmt"
)

var errNoOCR = errors.New("no OCR engine configured")

// UnsupportedTypeError is returned when neither the declared content type nor
// the file extension maps to a known extraction strategy.
type UnsupportedTypeError struct {
	Name        string
	ContentType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %q (content type %q)", e.Name, e.ContentType)
}

// ExtractionError wraps the underlying PDF/OCR/decode cause of a failed
// extraction. Stage names the pipeline step that failed.
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed at %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
