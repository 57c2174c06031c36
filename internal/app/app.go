package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/config"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core"
	db "github.com/africacodeacademy-erp2025/gazette-ingest/internal/core/database"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core/extract"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core/ingest"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core/llm"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core/storage"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/services"
)

type App struct {
	DBClient   core.DbClient
	Objects    core.ObjectClient
	OCRPool    *extract.Pool
	Ingestor   ingest.Ingestor
	Server     *Server
	closeFuncs []func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a := &App{}

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBClient = dbClient
	a.closeFuncs = append(a.closeFuncs, dbClient.Close)
	log.Println("Database initialized and ready.")

	objClient, err := storage.NewS3Client(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Objects = objClient
	log.Println("Object client initialized and ready.")

	// Without a Gemini key the providers stay nil and the embedding/summary
	// services degrade to no-ops instead of failing uploads.
	var embedProvider core.EmbeddingProvider
	var llmProvider core.LLMProvider
	if cfg.AIAPIKey != "" {
		geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
		}
		a.closeFuncs = append(a.closeFuncs, geminiEmbedder.Close)
		embedProvider = geminiEmbedder

		geminiLLM, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("couldn't initialize the LLM: %w", err)
		}
		a.closeFuncs = append(a.closeFuncs, geminiLLM.Close)
		llmProvider = geminiLLM
	} else {
		log.Println("GEMINI_API_KEY not set; embeddings and summaries disabled.")
	}

	embedder := llm.NewEmbedder(embedProvider)
	summarizer := llm.NewSummarizer(llmProvider, cfg.GenModel)

	ocrPool, err := extract.NewGosseractPool(cfg.OCRWorkers)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("couldn't initialize the OCR pool: %w", err)
	}
	a.OCRPool = ocrPool
	a.closeFuncs = append(a.closeFuncs, ocrPool.Close)

	extractor := extract.NewExtractor(ocrPool)

	ingestor := ingest.NewGazetteIngestor(dbClient, objClient, extractor, embedder, summarizer, &ingest.Config{
		MaxChunkSize: cfg.MaxChunkSize,
	})
	ingestor.Start(ctx, cfg.IngestWorkers)
	a.Ingestor = ingestor

	gazetteService := services.NewGazetteService(dbClient, objClient, embedder, ingestor, cfg.BucketName)
	userService := services.NewUserService(dbClient)

	a.Server = NewServer(cfg, gazetteService, userService)
	return a, nil
}

func (a *App) Close() {
	for i := len(a.closeFuncs) - 1; i >= 0; i-- {
		if err := a.closeFuncs[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
}
