package extract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes text in a single raster image. Confidence is on the OCR
// engine's 0-100 scale.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (text string, confidence float64, err error)
	Close() error
}

// gosseractEngine is a stateful Tesseract worker. A single engine must not be
// used from more than one goroutine at a time; the Pool enforces that.
type gosseractEngine struct {
	client *gosseract.Client
}

// NewGosseractEngine creates a Tesseract worker loaded with the English model.
func NewGosseractEngine() (Engine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage("eng"); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set ocr language: %w", err)
	}
	return &gosseractEngine{client: client}, nil
}

func (g *gosseractEngine) Recognize(ctx context.Context, image []byte) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if err := g.client.SetImageFromBytes(image); err != nil {
		return "", 0, fmt.Errorf("set ocr image: %w", err)
	}
	text, err := g.client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("ocr recognize: %w", err)
	}

	// Word-level boxes carry per-word confidences; average them for the page.
	boxes, err := g.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return text, 0, nil
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return text, sum / float64(len(boxes)), nil
}

func (g *gosseractEngine) Close() error {
	return g.client.Close()
}

// Pool owns a fixed set of OCR engines and serializes access to them. Callers
// never touch an engine directly; Recognize acquires one for the duration of a
// single page and returns it afterwards, so concurrent extractions are safe.
type Pool struct {
	engines chan Engine
	size    int
}

// NewPool builds size engines with the given factory. On any factory failure
// the already-built engines are closed and the error returned.
func NewPool(size int, factory func() (Engine, error)) (*Pool, error) {
	if size <= 0 {
		size = 1
	}
	p := &Pool{engines: make(chan Engine, size), size: size}
	for i := 0; i < size; i++ {
		e, err := factory()
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("ocr engine %d: %w", i, err)
		}
		p.engines <- e
	}
	return p, nil
}

// NewGosseractPool builds a pool of Tesseract workers.
func NewGosseractPool(size int) (*Pool, error) {
	return NewPool(size, NewGosseractEngine)
}

// Recognize runs OCR on one image using a pooled engine, blocking until an
// engine is free or the context ends.
func (p *Pool) Recognize(ctx context.Context, image []byte) (string, float64, error) {
	e, err := p.acquire(ctx)
	if err != nil {
		return "", 0, err
	}
	defer p.release(e)
	return e.Recognize(ctx, image)
}

func (p *Pool) acquire(ctx context.Context) (Engine, error) {
	select {
	case e := <-p.engines:
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) release(e Engine) {
	p.engines <- e
}

// Close releases every engine currently sitting in the pool. Close should only
// run after in-flight extractions have finished; engines still checked out are
// not waited for.
func (p *Pool) Close() error {
	var first error
	for i := 0; i < p.size; i++ {
		select {
		case e := <-p.engines:
			if err := e.Close(); err != nil && first == nil {
				first = err
			}
		default:
			// Engine still checked out; skip.
		}
	}
	return first
}
