// Package ingest runs the background extraction pipeline: fetch the stored
// file, extract text, chunk it, embed the chunks, persist everything, and
// generate a best-effort summary.
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core/chunker"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core/storage"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/models"
)

// Config tunes the pipeline.
//
// MaxChunkSize: character budget per chunk (0 uses the chunker default).
// ProcessTimeout: wall-clock bound for one gazette's full pipeline run
// (0 uses 5 minutes).
type Config struct {
	MaxChunkSize   int
	ProcessTimeout time.Duration
}

// Ingestor is the job-queue face of the pipeline, consumed by the upload path.
type Ingestor interface {
	Start(ctx context.Context, numWorkers int)
	Enqueue(gazetteID string)
	ProcessOne(ctx context.Context, gazetteID string) error
}

// GazetteIngestor orchestrates the background ingestion pipeline.
//
// jobs is an in-memory queue of gazette IDs to process (easy to swap with a
// broker later).
type GazetteIngestor struct {
	db         core.DbClient
	obj        core.ObjectClient
	extractor  core.TextExtractor
	embedder   core.EmbeddingService
	summarizer core.SummaryService
	cfg        *Config
	jobs       chan string
}

// NewGazetteIngestor constructs the ingestor with a bounded job queue (64).
func NewGazetteIngestor(
	db core.DbClient,
	obj core.ObjectClient,
	extractor core.TextExtractor,
	embedder core.EmbeddingService,
	summarizer core.SummaryService,
	cfg *Config,
) *GazetteIngestor {
	if cfg == nil {
		cfg = &Config{}
	}
	return &GazetteIngestor{
		db: db, obj: obj, extractor: extractor, embedder: embedder, summarizer: summarizer,
		cfg:  cfg,
		jobs: make(chan string, 64),
	}
}

// Start runs numWorkers goroutines reading from the jobs channel.
func (i *GazetteIngestor) Start(ctx context.Context, numWorkers int) {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			for {
				select {
				case <-ctx.Done():
					log.Printf("GazetteIngestor: worker %d shutting down", w)
					return
				case id := <-i.jobs:
					log.Printf("GazetteIngestor: worker %d processing gazette %s", w, id)
					if err := i.ProcessOne(ctx, id); err != nil {
						log.Printf("GazetteIngestor: gazette %s: %v", id, err)
					}
				}
			}
		}(w)
	}
}

// Enqueue schedules a gazette ID for ingestion.
// If the queue is full, this call blocks until space frees up.
func (i *GazetteIngestor) Enqueue(gazetteID string) {
	i.jobs <- gazetteID
}

// ProcessOne runs the full pipeline for one gazette. Extraction failures mark
// the record failed but keep it (file stored, text empty). Embedding and
// summarization are enhancements: their failures are logged and skipped, never
// fatal.
func (i *GazetteIngestor) ProcessOne(ctx context.Context, gazetteID string) error {
	// Fresh context with a longer timeout; the request that enqueued us may
	// already be gone.
	timeout := i.cfg.ProcessTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	proctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	gaz, err := i.db.GetGazetteByID(proctx, gazetteID)
	if err != nil {
		return fmt.Errorf("load gazette: %w", err)
	}
	if gaz == nil {
		return fmt.Errorf("gazette not found: %s", gazetteID)
	}

	if err := i.db.UpdateGazetteStatus(proctx, gazetteID, models.StatusProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	bucket, key := storage.ParseURL(gaz.StorageURL)
	data, err := i.obj.GetFile(proctx, bucket, key)
	if err != nil {
		i.markFailed(proctx, gazetteID)
		return fmt.Errorf("fetch object: %w", err)
	}

	res, err := i.extractor.Extract(proctx, gaz.FileName, gaz.ContentType, data)
	if err != nil {
		i.markFailed(proctx, gazetteID)
		return fmt.Errorf("extract %s: %w", gaz.FileName, err)
	}

	if err := i.db.SetGazetteText(proctx, gazetteID, res.Text, string(res.Method)); err != nil {
		i.markFailed(proctx, gazetteID)
		return fmt.Errorf("save text: %w", err)
	}

	if err := i.chunkAndEmbed(proctx, gazetteID, res.Text); err != nil {
		i.markFailed(proctx, gazetteID)
		return err
	}

	if sum := i.summarizer.Summarize(proctx, res.Text, nil); sum != nil {
		if err := i.db.SetGazetteSummary(proctx, gazetteID, sum.Text); err != nil {
			log.Printf("GazetteIngestor: save summary for %s: %v", gazetteID, err)
		}
	}

	return i.db.UpdateGazetteStatus(proctx, gazetteID, models.StatusCompleted)
}

// markFailed writes the failed status on a context detached from the pipeline
// deadline. The deadline expiring is itself a common failure cause; the status
// write must still land or the record sticks in processing.
func (i *GazetteIngestor) markFailed(ctx context.Context, gazetteID string) {
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := i.db.UpdateGazetteStatus(failCtx, gazetteID, models.StatusFailed); err != nil {
		log.Printf("GazetteIngestor: mark %s failed: %v", gazetteID, err)
	}
}

// chunkAndEmbed splits the text, embeds the chunks, and persists the chunk
// set. The replace runs even when the new text yields no chunks, so
// re-ingestion never leaves a previous run's chunks behind. A failed embedding
// call downgrades to nil vectors; a failed insert is fatal because the chunks
// are part of the primary record.
func (i *GazetteIngestor) chunkAndEmbed(ctx context.Context, gazetteID, text string) error {
	chunks := chunker.Split(text, i.cfg.MaxChunkSize)

	vecs, err := i.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		log.Printf("GazetteIngestor: embedding for %s degraded: %v", gazetteID, err)
		vecs = make([][]float32, len(chunks))
	}

	now := time.Now()
	rows := make([]models.GazetteChunk, len(chunks))
	for k, c := range chunks {
		rows[k] = models.GazetteChunk{
			ID:         uuid.NewString(),
			GazetteID:  gazetteID,
			Position:   k,
			Text:       c,
			Embedding:  vecs[k],
			TokenCount: chunker.ApproxTokens(c),
			CreatedAt:  now,
		}
	}

	if err := i.db.ReplaceGazetteChunks(ctx, gazetteID, rows); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}
