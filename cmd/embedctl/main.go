// Command embedctl is a small debugging utility: it embeds a single
// piece of text through the configured embedding endpoint (C2) and
// prints the resulting vector as a JSON array, so the embedding config
// in the environment or .env can be checked without running the full planner.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"wayfarer/internal/config"
	"wayfarer/internal/embedding"
)

func main() {
	log.SetFlags(0)
	var (
		model = flag.String("model", "", "override model")
		text  = flag.String("text", "", "text to embed (use -stdin to read from STDIN)")
		stdin = flag.Bool("stdin", false, "read entire STDIN as input text")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *model != "" {
		cfg.Embedding.Model = *model
	}
	if cfg.Embedding.APIKey == "" {
		log.Fatal("EMBED_API_KEY not set (set in .env or environment)")
	}

	var input string
	if *stdin {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("read stdin: %v", err)
		}
		input = string(b)
	} else {
		input = *text
	}
	if input == "" {
		log.Fatal("no input provided; use -text or -stdin")
	}

	timeout := time.Duration(cfg.Embedding.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	vec, err := embedding.Embed(ctx, cfg.Embedding, input)
	if err != nil {
		log.Fatalf("embed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(vec); err != nil {
		log.Fatalf("encode: %v", err)
	}
}
