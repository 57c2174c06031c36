package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanPDFText_Basic(t *testing.T) {
	data := []byte("BT /F1 12 Tf (Hello) Tj (World) Tj ET")
	assert.Equal(t, "Hello World", scanPDFText(data))
}

func TestScanPDFText_EscapedParens(t *testing.T) {
	data := []byte(`(Section \(a\) applies) Tj`)
	assert.Equal(t, "Section (a) applies", scanPDFText(data))
}

func TestScanPDFText_StripsOctalEscapes(t *testing.T) {
	data := []byte(`(Notice\056 No\056 42) Tj`)
	assert.Equal(t, "Notice No 42", scanPDFText(data))
}

func TestScanPDFText_NestedParens(t *testing.T) {
	data := []byte(`(outer (inner) tail) Tj`)
	assert.Equal(t, "outer (inner) tail", scanPDFText(data))
}

func TestScanPDFText_CollapsesWhitespace(t *testing.T) {
	data := []byte("(too   many\n\nspaces) (  here  )")
	assert.Equal(t, "too many spaces here", scanPDFText(data))
}

func TestScanPDFText_UnterminatedString(t *testing.T) {
	data := []byte("(good) (never closed")
	assert.Equal(t, "good", scanPDFText(data))
}

func TestScanPDFText_BinaryGarbage(t *testing.T) {
	// Compressed stream bytes should produce little to nothing.
	data := []byte{0x78, 0x9c, 0x01, 0x02, 0x03, 0xff, 0xfe}
	assert.Empty(t, scanPDFText(data))
}

func TestMeanConfidence(t *testing.T) {
	assert.Equal(t, 0.0, meanConfidence(100, 0))
	assert.InDelta(t, 50.0, meanConfidence(100, 2), 1e-9)

	// Empty pages count toward the divisor and drag the mean down.
	assert.InDelta(t, 30.0, meanConfidence(90, 3), 1e-9)
}
