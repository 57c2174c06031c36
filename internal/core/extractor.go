package core

import (
	"context"

	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core/extract"
)

// TextExtractor turns an uploaded file into extracted text plus a method tag.
// The contentType hint and file extension together choose the parsing strategy.
type TextExtractor interface {
	Extract(ctx context.Context, name, contentType string, data []byte) (*extract.Result, error)
}
