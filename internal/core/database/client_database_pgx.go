package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/config"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db, cfg.EmbedDim); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, COALESCE($4, now()), COALESCE($5, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Gazettes

func (c *DatabaseClient) CreateGazette(ctx context.Context, g *models.Gazette) error {
	if g == nil {
		return errors.New("nil gazette")
	}
	const q = `
		INSERT INTO gazettes
			(id, title, file_name, storage_url, content_type, category, status, uploaded_by, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()), COALESCE($10, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		g.ID, g.Title, g.FileName, g.StorageURL, g.ContentType, g.Category, g.Status, g.UploadedBy, g.CreatedAt, g.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetGazetteByID(ctx context.Context, id string) (*models.Gazette, error) {
	const q = `
		SELECT id, title, file_name, storage_url, content_type, category,
		       extracted_text, extraction_method, summary, status, uploaded_by, created_at, updated_at
		FROM gazettes
		WHERE id = $1
	`
	var g models.Gazette
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&g.ID, &g.Title, &g.FileName, &g.StorageURL, &g.ContentType, &g.Category,
		&g.ExtractedText, &g.ExtractionMethod, &g.Summary, &g.Status, &g.UploadedBy, &g.CreatedAt, &g.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *DatabaseClient) ListGazettes(ctx context.Context) ([]models.Gazette, error) {
	const q = `
		SELECT id, title, file_name, storage_url, content_type, category,
		       extraction_method, summary, status, uploaded_by, created_at, updated_at
		FROM gazettes
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Gazette
	for rows.Next() {
		var g models.Gazette
		if err := rows.Scan(
			&g.ID, &g.Title, &g.FileName, &g.StorageURL, &g.ContentType, &g.Category,
			&g.ExtractionMethod, &g.Summary, &g.Status, &g.UploadedBy, &g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateGazetteStatus(ctx context.Context, id string, status string) error {
	const q = `
		UPDATE gazettes
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("gazette not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) SetGazetteText(ctx context.Context, id string, text string, method string) error {
	const q = `
		UPDATE gazettes
		SET extracted_text = $2, extraction_method = $3, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, text, method)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("gazette not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) SetGazetteSummary(ctx context.Context, id string, summary string) error {
	const q = `
		UPDATE gazettes
		SET summary = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, summary)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("gazette not found: %s", id)
	}
	return nil
}

// Chunks

// ReplaceGazetteChunks swaps a gazette's chunk set in a single transaction.
// Chunks are derived artifacts, so re-ingestion always rebuilds them from
// scratch instead of merging.
func (c *DatabaseClient) ReplaceGazetteChunks(ctx context.Context, gazetteID string, chunks []models.GazetteChunk) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM gazette_chunks WHERE gazette_id = $1`, gazetteID); err != nil {
		_ = tx.Rollback()
		return err
	}

	const q = `
		INSERT INTO gazette_chunks
			(id, gazette_id, position, text, embedding, token_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]

		// NULL embedding when the chunk was filtered or the service degraded.
		var vec any
		if ch.Embedding != nil {
			vec = pgvector.NewVector(ch.Embedding)
		}

		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.GazetteID, ch.Position, ch.Text, vec, ch.TokenCount, ch.CreatedAt,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (c *DatabaseClient) GetChunksByGazette(ctx context.Context, gazetteID string) ([]models.GazetteChunk, error) {
	const q = `
		SELECT id, gazette_id, position, text, token_count, created_at
		FROM gazette_chunks
		WHERE gazette_id = $1
		ORDER BY position
	`
	rows, err := c.db.QueryContext(ctx, q, gazetteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.GazetteChunk
	for rows.Next() {
		var ch models.GazetteChunk
		if err := rows.Scan(&ch.ID, &ch.GazetteID, &ch.Position, &ch.Text, &ch.TokenCount, &ch.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// SearchChunks finds top-k similar chunks across all gazettes for a query
// embedding, using pgvector cosine distance.
func (c *DatabaseClient) SearchChunks(ctx context.Context, queryVec []float32, limit int) ([]models.ChunkMatch, error) {
	const q = `
		SELECT ch.id, ch.gazette_id, ch.position, ch.text, ch.token_count,
		       g.title, 1 - (ch.embedding <=> $1) AS similarity
		FROM gazette_chunks ch
		JOIN gazettes g ON g.id = ch.gazette_id
		WHERE ch.embedding IS NOT NULL
		ORDER BY ch.embedding <=> $1
		LIMIT $2
	`
	vec := pgvector.NewVector(queryVec)
	rows, err := c.db.QueryContext(ctx, q, vec, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChunkMatch
	for rows.Next() {
		var m models.ChunkMatch
		if err := rows.Scan(&m.ID, &m.GazetteID, &m.Position, &m.Text, &m.TokenCount, &m.GazetteTitle, &m.Similarity); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
