package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ilkecodes/sdr-agent-system/internal/config"
	"github.com/ilkecodes/sdr-agent-system/internal/core/chunker"
	db "github.com/ilkecodes/sdr-agent-system/internal/core/database"
	"github.com/ilkecodes/sdr-agent-system/internal/core/extract"
	"github.com/ilkecodes/sdr-agent-system/internal/core/ingest"
	"github.com/ilkecodes/sdr-agent-system/internal/core/llm"
	"github.com/ilkecodes/sdr-agent-system/internal/core/objectstore"
	"github.com/ilkecodes/sdr-agent-system/internal/core/pipeline"
)

type App struct {
	DBClient     db.DbClient
	ObjectClient objectstore.ObjectClient
	DocIngestor  *pipeline.DocumentIngestor
	Server       *Server

	embedder *llm.GeminiEmbedder
	llm      *llm.GeminiLLM
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	objClient, err := objectstore.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Object client initialized and ready.")

	geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the llm, %w", err)
	}

	counter := chunker.NewCounter(cfg.Tokenizer == "exact")
	registry := extract.NewRegistry(false)
	converter := pipeline.NewConverter(registry, chunker.New(counter, cfg.TargetTokens, cfg.OverlapTokens))
	ingestor := ingest.NewIngestor(dbClient, geminiEmbedder, counter, cfg.EmbedDim, cfg.BatchSize)

	docIngestor := pipeline.NewDocumentIngestor(dbClient, objClient, converter, ingestor)
	docIngestor.Start(ctx, cfg.NumWorkers)

	server := NewServer(cfg, dbClient, objClient, docIngestor, geminiEmbedder, llmProvider)

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		DocIngestor:  docIngestor,
		Server:       server,
		embedder:     geminiEmbedder,
		llm:          llmProvider,
	}, nil
}

func (a *App) Close() {
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
