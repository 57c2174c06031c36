package services

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core/extract"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core/ingest"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/models"
)

// ErrSearchUnavailable is returned when semantic search is requested but no
// embedding credential is configured.
var ErrSearchUnavailable = errors.New("semantic search unavailable: embedding service not configured")

// GazetteService owns the gazette record lifecycle: storage upload, record
// creation, and handoff to the background extraction pipeline.
type GazetteService struct {
	db       core.DbClient
	storage  core.ObjectClient
	embedder core.EmbeddingService
	ingestor ingest.Ingestor
	bucket   string
}

func NewGazetteService(db core.DbClient, storage core.ObjectClient, embedder core.EmbeddingService, ingestor ingest.Ingestor, bucket string) *GazetteService {
	return &GazetteService{db: db, storage: storage, embedder: embedder, ingestor: ingestor, bucket: bucket}
}

// UploadAndCreate validates the file type, uploads the bytes, inserts the
// record with status pending, and enqueues extraction. Unsupported files fail
// with *extract.UnsupportedTypeError before anything is stored, so no record
// for them ever exists, let alone completes.
func (s *GazetteService) UploadAndCreate(ctx context.Context, userID, title, category, filename, contentType string, data []byte) (*models.Gazette, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if !extract.SupportedType(filename, contentType) {
		return nil, &extract.UnsupportedTypeError{Name: filename, ContentType: contentType}
	}
	if title == "" {
		title = filename
	}

	gazetteID := uuid.NewString()
	key := s.objectKey(gazetteID, filename)

	url, err := s.storage.UploadFile(ctx, s.bucket, key, data, contentType)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	gaz := &models.Gazette{
		ID:          gazetteID,
		Title:       title,
		FileName:    filename,
		StorageURL:  url,
		ContentType: contentType,
		Category:    category,
		Status:      models.StatusPending,
		UploadedBy:  userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.CreateGazette(ctx, gaz); err != nil {
		return nil, err
	}

	s.ingestor.Enqueue(gaz.ID)
	return gaz, nil
}

func (s *GazetteService) Get(ctx context.Context, id string) (*models.Gazette, error) {
	return s.db.GetGazetteByID(ctx, id)
}

func (s *GazetteService) List(ctx context.Context) ([]models.Gazette, error) {
	return s.db.ListGazettes(ctx)
}

func (s *GazetteService) Chunks(ctx context.Context, gazetteID string) ([]models.GazetteChunk, error) {
	return s.db.GetChunksByGazette(ctx, gazetteID)
}

// Search embeds the query and returns the top-k most similar chunks across all
// gazettes, with similarity scores.
func (s *GazetteService) Search(ctx context.Context, query string, limit int) ([]models.ChunkMatch, error) {
	if limit <= 0 {
		limit = 5
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if vec == nil {
		return nil, ErrSearchUnavailable
	}
	return s.db.SearchChunks(ctx, vec, limit)
}

// objectKey creates a consistent S3 key layout.
func (s *GazetteService) objectKey(gazetteID, filename string) string {
	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, " ", "_")
	return path.Join("gazettes", gazetteID, filename)
}
