// Command ingest embeds a chunks file and writes it to the vector store.
// Re-running over an unchanged file inserts nothing, by construction.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ilkecodes/sdr-agent-system/internal/config"
	"github.com/ilkecodes/sdr-agent-system/internal/core/chunker"
	db "github.com/ilkecodes/sdr-agent-system/internal/core/database"
	"github.com/ilkecodes/sdr-agent-system/internal/core/ingest"
	"github.com/ilkecodes/sdr-agent-system/internal/core/llm"
)

func main() {
	dbURL := flag.String("db", "", "store connection string, overrides DATABASE_URL")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <chunks.jsonl>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *dbURL != "" {
		os.Setenv("DATABASE_URL", *dbURL)
	}
	cfg := config.LoadConfig()
	ctx := context.Background()

	dbClient, err := db.NewDatabaseClient(ctx, cfg)
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}
	defer dbClient.Close()

	embedder, err := llm.NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}
	defer embedder.Close()

	counter := chunker.NewCounter(cfg.Tokenizer == "exact")
	ingestor := ingest.NewIngestor(dbClient, embedder, counter, cfg.EmbedDim, cfg.BatchSize)

	report, err := ingestor.IngestFile(ctx, flag.Arg(0))
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	// Per-chunk failures are already in the report; only whole-run errors above
	// exit non-zero.
	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
}
