package models

import (
	"time"
)

// Gazette processing statuses. A gazette reaches StatusCompleted only after
// extracted text has been persisted.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// User represents an administrator account that can upload and manage gazettes.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Gazette represents a published gazette or tender document record.
//
// ExtractedText is nil until the extraction pipeline has run; ExtractionMethod
// records which strategy produced it ("text", "ocr" or "hybrid"). Category is a
// display label ("Tender", "Notice", ...) and is unrelated to Status.
type Gazette struct {
	ID               string    `db:"id" json:"id"`
	Title            string    `db:"title" json:"title"`
	FileName         string    `db:"file_name" json:"file_name"`
	StorageURL       string    `db:"storage_url" json:"storage_url"`
	ContentType      string    `db:"content_type" json:"content_type"`
	Category         string    `db:"category" json:"category"`
	ExtractedText    *string   `db:"extracted_text" json:"extracted_text,omitempty"`
	ExtractionMethod string    `db:"extraction_method" json:"extraction_method,omitempty"`
	Summary          *string   `db:"summary" json:"summary,omitempty"`
	Status           string    `db:"status" json:"status"` // pending | processing | completed | failed
	UploadedBy       string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// GazetteChunk represents one text chunk derived from a gazette's extracted text.
// Chunks partition the source text in Position order. Embedding is nil when the
// embedding service was unavailable or the chunk was filtered out.
type GazetteChunk struct {
	ID         string    `db:"id" json:"id"`
	GazetteID  string    `db:"gazette_id" json:"gazette_id"`
	Position   int       `db:"position" json:"position"`
	Text       string    `db:"text" json:"text"`
	Embedding  []float32 `db:"embedding" json:"embedding,omitempty"` // pgvector column
	TokenCount int       `db:"token_count" json:"token_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ChunkMatch is a query-time search result. Similarity is computed against the
// query embedding and never persisted.
type ChunkMatch struct {
	GazetteChunk
	GazetteTitle string  `json:"gazette_title"`
	Similarity   float64 `json:"similarity"`
}
