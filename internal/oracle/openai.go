package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIURL = "https://api.openai.com"

// EmbeddingsConfig configures an OpenAI-compatible embeddings client.
type EmbeddingsConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	BatchSize int // inputs per request, defaults to 256
	Timeout   time.Duration
}

// EmbeddingsClient calls POST /v1/embeddings.
type EmbeddingsClient struct {
	apiKey     string
	model      string
	baseURL    string
	batchSize  int
	httpClient *http.Client
}

func NewEmbeddingsClient(cfg EmbeddingsConfig) *EmbeddingsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIURL
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &EmbeddingsClient{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		batchSize:  cfg.BatchSize,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Model returns the configured embedding model.
func (c *EmbeddingsClient) Model() string { return c.model }

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed returns one vector per input. Large inputs are sent in batches.
func (c *EmbeddingsClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		vecs, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (c *EmbeddingsClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	clean := make([]string, len(texts))
	for i, s := range texts {
		s = strings.TrimSpace(s)
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	body, err := json.Marshal(embeddingsRequest{Model: c.model, Input: clean})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("embeddings api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: string(raw)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings api status %d: %s", resp.StatusCode, truncate(string(raw), 500))
	}

	var apiResp embeddingsResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([][]float32, len(clean))
	for _, d := range apiResp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[d.Index] = vec
	}
	for i, v := range out {
		if len(v) == 0 {
			return nil, fmt.Errorf("missing embedding for input %d (requested=%d returned=%d)", i, len(clean), len(apiResp.Data))
		}
	}
	return out, nil
}

// Close releases resources.
func (c *EmbeddingsClient) Close() {
	c.httpClient.CloseIdleConnections()
}
