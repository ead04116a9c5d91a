// Command convert normalizes a local document into canonical Markdown plus a
// JSON Lines chunks file, written next to each other under --out.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ilkecodes/sdr-agent-system/internal/core/chunker"
	"github.com/ilkecodes/sdr-agent-system/internal/core/extract"
	"github.com/ilkecodes/sdr-agent-system/internal/core/pipeline"
)

func main() {
	out := flag.String("out", ".", "output directory for the .md and .chunks.jsonl artifacts")
	mime := flag.String("mime", "", "MIME hint for extensionless sources")
	lang := flag.String("lang", "auto", "document language hint")
	target := flag.Int("target-tokens", chunker.DefaultTargetTokens, "soft token budget per chunk")
	overlap := flag.Int("overlap-tokens", chunker.DefaultOverlapTokens, "overlap carried between size-limited chunks")
	exact := flag.Bool("exact-tokens", false, "use the exact tokenizer instead of the word-count heuristic")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <source-file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	counter := chunker.NewCounter(*exact)
	conv := pipeline.NewConverter(extract.NewRegistry(false), chunker.New(counter, *target, *overlap))

	res, err := conv.ConvertFile(context.Background(), flag.Arg(0), *mime, *lang)
	if err != nil {
		log.Fatalf("convert failed: %v", err)
	}

	mdPath, chunksPath, err := res.WriteArtifacts(*out)
	if err != nil {
		log.Fatalf("write artifacts failed: %v", err)
	}

	fmt.Printf("md: %s\nchunks: %s (%d chunks)\n", mdPath, chunksPath, len(res.Chunks))
}
