package core

import (
	"context"
	"io"

	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) (err error)
	GetUserByEmail(ctx context.Context, email string) (user *models.User, err error)

	CreateGazette(ctx context.Context, g *models.Gazette) error
	GetGazetteByID(ctx context.Context, id string) (*models.Gazette, error)
	ListGazettes(ctx context.Context) ([]models.Gazette, error)
	UpdateGazetteStatus(ctx context.Context, id string, status string) error
	SetGazetteText(ctx context.Context, id string, text string, method string) error
	SetGazetteSummary(ctx context.Context, id string, summary string) error

	ReplaceGazetteChunks(ctx context.Context, gazetteID string, chunks []models.GazetteChunk) error
	GetChunksByGazette(ctx context.Context, gazetteID string) ([]models.GazetteChunk, error)
	SearchChunks(ctx context.Context, queryVec []float32, limit int) ([]models.ChunkMatch, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
