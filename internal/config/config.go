package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	MindgestAPIKey string

	// Claude completions
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string

	// OpenAI-compatible embeddings
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	EmbedModel     string
	EmbedBatchSize int

	// Oracle calls
	OracleTimeout    time.Duration
	OracleMaxRetries int

	// Outline build
	MaxLeavesToExpand   int
	DetailLevel         string
	MaxConcurrentLeaves int
	LeafTimeout         time.Duration
	PruneMinDepth       int

	// Text and file inputs
	BlockMaxTokens int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int
	JobTimeout   time.Duration

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		MindgestAPIKey: os.Getenv("MINDGEST_API_KEY"),

		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		AnthropicBaseURL: os.Getenv("ANTHROPIC_BASE_URL"),

		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		EmbedModel:     envOr("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		EmbedBatchSize: envInt("EMBED_BATCH_SIZE", 256),

		OracleTimeout:    envDuration("ORACLE_TIMEOUT", 120*time.Second),
		OracleMaxRetries: envInt("ORACLE_MAX_RETRIES", 0),

		MaxLeavesToExpand:   envInt("MAX_LEAVES_TO_EXPAND", 30),
		DetailLevel:         envOr("DETAIL_LEVEL", "medium"),
		MaxConcurrentLeaves: envInt("MAX_CONCURRENT_LEAVES", 32),
		LeafTimeout:         envDuration("LEAF_TIMEOUT", 60*time.Second),
		PruneMinDepth:       envInt("PRUNE_MIN_DEPTH", 2),

		BlockMaxTokens: envInt("BLOCK_MAX_TOKENS", 300),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),
		JobTimeout:   envDuration("JOB_TIMEOUT", 15*time.Minute),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 256
	}
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = 120 * time.Second
	}
	if cfg.OracleMaxRetries < 0 {
		cfg.OracleMaxRetries = 0
	}
	if cfg.MaxLeavesToExpand <= 0 {
		cfg.MaxLeavesToExpand = 30
	}
	if cfg.MaxConcurrentLeaves <= 0 {
		cfg.MaxConcurrentLeaves = 32
	}
	if cfg.LeafTimeout <= 0 {
		cfg.LeafTimeout = 60 * time.Second
	}
	if cfg.PruneMinDepth <= 0 {
		cfg.PruneMinDepth = 2
	}
	if cfg.BlockMaxTokens <= 0 {
		cfg.BlockMaxTokens = 300
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the keys the server cannot run without.
func (c Config) Validate() error {
	if c.MindgestAPIKey == "" {
		return fmt.Errorf("MINDGEST_API_KEY is required")
	}
	return c.ValidateOracles()
}

// ValidateOracles checks the keys every outline build needs.
func (c Config) ValidateOracles() error {
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
