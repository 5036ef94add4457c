// Command mindgest builds an outline for one document or saved payload and
// prints the Markdown.
//
//	mindgest [-detail low|medium|high] [-max-leaves N] [-o out.md] FILE
//
// FILE is either a request payload (.json, .yaml) or a document in any
// supported format.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/mindgest/internal/api"
	"github.com/dgallion1/mindgest/internal/chunker"
	"github.com/dgallion1/mindgest/internal/config"
	"github.com/dgallion1/mindgest/internal/doctree"
	"github.com/dgallion1/mindgest/internal/oracle"
	"github.com/dgallion1/mindgest/internal/parser"
	"github.com/dgallion1/mindgest/internal/pipeline"
	"github.com/dgallion1/mindgest/internal/source"
)

func main() {
	detail := flag.String("detail", "", "detail level: low, medium or high")
	maxLeaves := flag.Int("max-leaves", 0, "leaves to expand (default MAX_LEAVES_TO_EXPAND)")
	out := flag.String("o", "", "write Markdown to this file instead of stdout")
	showMeta := flag.Bool("meta", false, "print build meta as JSON to stderr")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mindgest [flags] FILE")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.ValidateOracles(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	name := flag.Arg(0)
	data, err := os.ReadFile(name)
	if err != nil {
		log.Error("read input", "error", err)
		os.Exit(1)
	}

	doc, opts, err := load(cfg, log, name, data, *detail, *maxLeaves)
	if err != nil {
		log.Error("load input", "file", name, "error", err)
		os.Exit(1)
	}

	claude := oracle.NewClaudeClient(oracle.ClaudeConfig{
		APIKey:  cfg.AnthropicAPIKey,
		Model:   cfg.AnthropicModel,
		BaseURL: cfg.AnthropicBaseURL,
		Timeout: cfg.OracleTimeout,
	})
	defer claude.Close()
	embedder := oracle.NewEmbeddingsClient(oracle.EmbeddingsConfig{
		APIKey:    cfg.OpenAIAPIKey,
		Model:     cfg.EmbedModel,
		BaseURL:   cfg.OpenAIBaseURL,
		BatchSize: cfg.EmbedBatchSize,
		Timeout:   cfg.OracleTimeout,
	})
	defer embedder.Close()

	p := pipeline.New(claude, embedder, log)
	p.Configure(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.JobTimeout)
	defer cancel()

	opts.OnPhase = func(s pipeline.JobStatus) { log.Debug("phase", "status", s) }
	res, err := p.Run(ctx, doc, opts)
	if err != nil {
		log.Error("build outline", "title", doc.Title, "error", err)
		os.Exit(1)
	}

	if *showMeta {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		enc.Encode(res.Meta)
	}

	if *out == "" {
		fmt.Print(res.Markdown)
		return
	}
	if err := os.WriteFile(*out, []byte(res.Markdown), 0o644); err != nil {
		log.Error("write output", "error", err)
		os.Exit(1)
	}
	log.Info("outline written", "file", *out, "leaves", res.Meta.LeavesExpanded, "duration_ms", res.Meta.DurationMS)
}

// load turns a payload or document file into a build input. Flag overrides
// win over payload overrides, which win over the environment.
func load(cfg config.Config, log *slog.Logger, name string, data []byte, detail string, maxLeaves int) (doctree.Document, pipeline.Options, error) {
	conv := source.Converter{
		Chunk: chunker.Config{MaxTokens: cfg.BlockMaxTokens},
		Parse: parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	}

	var p source.Payload
	if source.IsPayloadFile(name) {
		var err error
		if p, err = source.DecodePayload(name, data); err != nil {
			return doctree.Document{}, pipeline.Options{}, err
		}
	}
	if detail != "" {
		p.DetailLevel = detail
	}
	if maxLeaves > 0 {
		p.MaxLeaves = maxLeaves
	}
	opts, err := p.Options(api.BuildOptions(cfg, log))
	if err != nil {
		return doctree.Document{}, pipeline.Options{}, err
	}

	var doc doctree.Document
	if source.IsPayloadFile(name) {
		doc, err = conv.Document(p)
	} else {
		doc, err = conv.FileDocument(name, data)
	}
	return doc, opts, err
}
