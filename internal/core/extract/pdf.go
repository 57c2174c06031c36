package extract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
)

const (
	// minDirectTextLen is the trimmed length below which a direct PDF text
	// scan is considered a scanned document and handed to OCR.
	minDirectTextLen = 50

	// maxOCRPages caps how many PDF pages are rasterized for OCR.
	maxOCRPages = 10

	// ocrDPI renders pages at 2x the PDF's native 72 DPI.
	ocrDPI = 144
)

// scanPDFText pulls parenthesis-delimited text tokens out of a raw PDF byte
// stream, per the PDF content-stream convention. Backslash escapes for
// parentheses and the backslash itself are honored, octal escape sequences are
// stripped, and all whitespace is collapsed. Compressed streams yield nothing,
// which is exactly when the OCR fallback takes over.
func scanPDFText(data []byte) string {
	var b strings.Builder

	for i := 0; i < len(data); i++ {
		if data[i] != '(' {
			continue
		}
		token, next, ok := readPDFString(data, i+1)
		i = next
		if !ok {
			continue
		}
		if token != "" {
			b.WriteString(token)
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// readPDFString consumes a literal string starting just after '(' and returns
// the decoded token plus the index of the closing parenthesis. Nested unescaped
// parentheses balance, as the PDF spec requires.
func readPDFString(data []byte, start int) (string, int, bool) {
	var b strings.Builder
	depth := 1

	for i := start; i < len(data); i++ {
		c := data[i]
		switch {
		case c == '\\' && i+1 < len(data):
			i++
			e := data[i]
			switch {
			case e == '(' || e == ')' || e == '\\':
				b.WriteByte(e)
			case e >= '0' && e <= '7':
				// Octal escape: up to three digits, dropped entirely.
				for j := 0; j < 2 && i+1 < len(data) && data[i+1] >= '0' && data[i+1] <= '7'; j++ {
					i++
				}
			case e == 'n' || e == 'r' || e == 't':
				b.WriteByte(' ')
			default:
				b.WriteByte(e)
			}
		case c == '(':
			depth++
			b.WriteByte(c)
		case c == ')':
			depth--
			if depth == 0 {
				return b.String(), i, true
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}

	// Unterminated string: treat as garbage, resume after it.
	return "", len(data), false
}

// extractPDF attempts a direct text scan and falls back to rasterize-and-OCR
// when the scan yields too little content.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (*Result, error) {
	if text := scanPDFText(data); len(strings.TrimSpace(text)) >= minDirectTextLen {
		return &Result{Text: text, Method: MethodText}, nil
	}

	return e.ocrPDF(ctx, data)
}

// ocrPDF rasterizes up to the first maxOCRPages pages and OCRs each one. Page
// texts are joined by a blank line. The reported confidence is the mean over
// every page attempted, pages that yielded no text included.
func (e *Extractor) ocrPDF(ctx context.Context, data []byte) (*Result, error) {
	if e.ocr == nil {
		return nil, &ExtractionError{Stage: "pdf-ocr", Err: errNoOCR}
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, &ExtractionError{Stage: "pdf-raster", Err: err}
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages > maxOCRPages {
		pages = maxOCRPages
	}
	if pages == 0 {
		return nil, &ExtractionError{Stage: "pdf-raster", Err: fmt.Errorf("pdf has no pages")}
	}

	var (
		texts   []string
		confSum float64
	)
	for n := 0; n < pages; n++ {
		if err := ctx.Err(); err != nil {
			return nil, &ExtractionError{Stage: "pdf-ocr", Err: err}
		}

		img, err := doc.ImageDPI(n, ocrDPI)
		if err != nil {
			// A bad page still counts toward the confidence divisor.
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			continue
		}

		text, conf, err := e.ocr.Recognize(ctx, buf.Bytes())
		if err != nil {
			return nil, &ExtractionError{Stage: "pdf-ocr", Err: err}
		}
		confSum += conf
		if t := strings.TrimSpace(text); t != "" {
			texts = append(texts, t)
		}
	}

	return &Result{
		Text:          strings.Join(texts, "\n\n"),
		Method:        MethodOCR,
		Confidence:    meanConfidence(confSum, pages),
		HasConfidence: true,
	}, nil
}

// meanConfidence divides the accumulated confidence by the number of pages
// attempted, not just the pages that produced text. Failed pages therefore
// drag the figure down, matching the portal's historical reporting.
func meanConfidence(sum float64, attempted int) float64 {
	if attempted <= 0 {
		return 0
	}
	return sum / float64(attempted)
}
