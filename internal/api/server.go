package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/mindgest/internal/budget"
	"github.com/dgallion1/mindgest/internal/chunker"
	"github.com/dgallion1/mindgest/internal/config"
	"github.com/dgallion1/mindgest/internal/oracle"
	"github.com/dgallion1/mindgest/internal/parser"
	"github.com/dgallion1/mindgest/internal/pipeline"
	"github.com/dgallion1/mindgest/internal/source"
)

// Server is the HTTP API server for mindgest.
type Server struct {
	router       chi.Router
	runner       pipeline.Runner
	orchestrator *pipeline.Orchestrator
	claude       *oracle.ClaudeClient
	conv         source.Converter
	opts         pipeline.Options
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. runner serves
// synchronous requests and orch the job endpoints; claude may be nil.
func NewServer(runner pipeline.Runner, orch *pipeline.Orchestrator, claude *oracle.ClaudeClient, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		runner:       runner,
		orchestrator: orch,
		claude:       claude,
		log:          log,
		cfg:          cfg,
		conv: source.Converter{
			Chunk:        chunker.Config{MaxTokens: cfg.BlockMaxTokens},
			Parse:        parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
			MaxFileBytes: cfg.MaxUploadBytes,
		},
		opts: BuildOptions(cfg, log),
	}
	s.setupRoutes()
	return s
}

// BuildOptions derives the default build options from the configuration.
// An unknown DETAIL_LEVEL falls back to medium.
func BuildOptions(cfg config.Config, log *slog.Logger) pipeline.Options {
	opts := pipeline.DefaultOptions()
	if cfg.MaxLeavesToExpand > 0 {
		opts.MaxLeaves = cfg.MaxLeavesToExpand
	}
	if cfg.PruneMinDepth > 0 {
		opts.PruneMinDepth = cfg.PruneMinDepth
	}
	d, err := budget.ParseDetailLevel(cfg.DetailLevel)
	if err != nil {
		log.Warn("invalid detail level, using medium", "error", err)
		d = budget.DetailMedium
	}
	opts.Detail = d
	return opts
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.MindgestAPIKey, s.log))

		r.Post("/api/mindmap_markdown", s.handleMindmap)
		r.Post("/api/mindmap_markdown/upload", s.handleUpload)
		r.Post("/api/mindmap_markdown/jobs", s.handleSubmitJob)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
