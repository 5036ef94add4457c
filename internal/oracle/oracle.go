// Package oracle talks to the external language and embedding models.
//
// Both are opaque services: a Completer turns a system and user prompt into
// text, an Embedder turns texts into vectors. Prompt construction and output
// parsing live with the callers.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Request is one completion call.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer generates text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Embedder maps texts to vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed: expected 1 vector, got %d", len(vecs))
	}
	return vecs[0], nil
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:markdown|md|json)?\\s*(.*?)\\s*```$")

// StripCodeBlock removes a Markdown code fence wrapping the whole of s.
func StripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
