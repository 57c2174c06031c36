// Package extract turns uploaded gazette files into plain text. PDFs get a
// direct content-stream scan with a rasterize-and-OCR fallback, images go
// straight to OCR, word-processor formats go through docconv, and plain text
// is decoded as-is.
package extract

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
)

// Method tags which strategy produced a document's text.
type Method string

const (
	MethodText   Method = "text"
	MethodOCR    Method = "ocr"
	MethodHybrid Method = "hybrid"
)

// Result is the transient outcome of one extraction. Only Text and Method are
// ever persisted; Confidence is reported (0-100) when HasConfidence is true,
// which only OCR-derived results set.
type Result struct {
	Text          string
	Method        Method
	Confidence    float64
	HasConfidence bool
}

// Extractor dispatches files to an extraction strategy by declared content
// type and extension. The OCR pool is owned by the caller and shared across
// requests; the Extractor itself is stateless and safe for concurrent use.
type Extractor struct {
	ocr *Pool
}

func NewExtractor(ocr *Pool) *Extractor {
	return &Extractor{ocr: ocr}
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tif": true, ".tiff": true,
}

var textExts = map[string]bool{
	".txt": true, ".text": true, ".md": true,
}

var wordExts = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".rtf":  "application/rtf",
}

func isPDF(ext, contentType string) bool {
	return ext == ".pdf" || strings.Contains(contentType, "application/pdf")
}

func isImage(ext, contentType string) bool {
	return imageExts[ext] || strings.HasPrefix(contentType, "image/")
}

func isPlainText(ext, contentType string) bool {
	return textExts[ext] || strings.HasPrefix(contentType, "text/")
}

// SupportedType reports whether Extract has a strategy for the file, letting
// the upload handler reject bad files before anything is stored.
func SupportedType(name, contentType string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if isPDF(ext, contentType) || isImage(ext, contentType) || isPlainText(ext, contentType) {
		return true
	}
	_, ok := wordExts[ext]
	return ok
}

// Extract produces the file's text and the method that produced it. The first
// matching strategy wins: PDF, image, plain text, then word-processor formats.
// Unknown types fail with *UnsupportedTypeError; everything else that goes
// wrong is wrapped in *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, name, contentType string, data []byte) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case isPDF(ext, contentType):
		return e.extractPDF(ctx, data)

	case isImage(ext, contentType):
		return e.extractImage(ctx, data)

	case isPlainText(ext, contentType):
		return &Result{Text: string(data), Method: MethodText}, nil

	default:
		mime, ok := wordExts[ext]
		if !ok {
			return nil, &UnsupportedTypeError{Name: name, ContentType: contentType}
		}
		return extractWordDoc(data, mime)
	}
}

// extractImage runs OCR directly on an uploaded raster image.
func (e *Extractor) extractImage(ctx context.Context, data []byte) (*Result, error) {
	if e.ocr == nil {
		return nil, &ExtractionError{Stage: "image-ocr", Err: errNoOCR}
	}
	text, conf, err := e.ocr.Recognize(ctx, data)
	if err != nil {
		return nil, &ExtractionError{Stage: "image-ocr", Err: err}
	}
	return &Result{
		Text:          strings.TrimSpace(text),
		Method:        MethodOCR,
		Confidence:    conf,
		HasConfidence: true,
	}, nil
}

// extractWordDoc parses legacy word-processor formats structurally via docconv.
func extractWordDoc(data []byte, mime string) (*Result, error) {
	res, err := docconv.Convert(bytes.NewReader(data), mime, false)
	if err != nil {
		return nil, &ExtractionError{Stage: "docconv", Err: err}
	}
	return &Result{Text: strings.TrimSpace(res.Body), Method: MethodText}, nil
}
