package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/mindgest/internal/api"
	"github.com/dgallion1/mindgest/internal/config"
	"github.com/dgallion1/mindgest/internal/oracle"
	"github.com/dgallion1/mindgest/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	claude := oracle.NewClaudeClient(oracle.ClaudeConfig{
		APIKey:  cfg.AnthropicAPIKey,
		Model:   cfg.AnthropicModel,
		BaseURL: cfg.AnthropicBaseURL,
		Timeout: cfg.OracleTimeout,
	})
	embedder := oracle.NewEmbeddingsClient(oracle.EmbeddingsConfig{
		APIKey:    cfg.OpenAIAPIKey,
		Model:     cfg.EmbedModel,
		BaseURL:   cfg.OpenAIBaseURL,
		BatchSize: cfg.EmbedBatchSize,
		Timeout:   cfg.OracleTimeout,
	})

	// Initialize pipeline.
	p := pipeline.New(claude, embedder, log)
	p.Configure(cfg)

	orch := pipeline.NewOrchestrator(cfg, p, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(p, orch, claude, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.JobTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		claude.Close()
		embedder.Close()
	}()

	log.Info("starting mindgest", "port", cfg.Port, "model", cfg.AnthropicModel, "embed_model", cfg.EmbedModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
