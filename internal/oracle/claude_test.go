package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClaudeClient_Complete(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "k" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"  ## A [importance:7]\n"},{"type":"text","text":"## B"}]}`))
	}))
	defer srv.Close()

	c := NewClaudeClient(ClaudeConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	out, err := c.Complete(context.Background(), Request{System: "sys", User: "usr", MaxTokens: 200, Temperature: 0.02})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "## A [importance:7]\n## B" {
		t.Errorf("unexpected output %q", out)
	}
	if got.Model != "m" || got.System != "sys" || got.MaxTokens != 200 || got.Temperature != 0.02 {
		t.Errorf("unexpected request %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "usr" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
	if snap := c.Stats.Snapshot(); snap.Count != 1 {
		t.Errorf("expected 1 recorded call, got %d", snap.Count)
	}
}

func TestClaudeClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, true},
		{"server error", http.StatusBadGateway, `oops`, true},
		{"bad request", http.StatusBadRequest, `{"error":{}}`, false},
		{"api error body", http.StatusOK, `{"error":{"type":"overloaded","message":"busy"}}`, false},
		{"empty content", http.StatusOK, `{"content":[]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClaudeClient(ClaudeConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
			_, err := c.Complete(context.Background(), Request{User: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if IsRetryable(err) != tt.retryable {
				t.Errorf("expected retryable=%v, got %v (%v)", tt.retryable, IsRetryable(err), err)
			}
			if snap := c.Stats.Snapshot(); snap.Failures != 1 {
				t.Errorf("expected 1 failure recorded, got %d", snap.Failures)
			}
		})
	}
}

func TestStripCodeBlock(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```markdown\n### A\n- x\n```", "### A\n- x"},
		{"```\n- x\n```", "- x"},
		{"  - plain  ", "- plain"},
	}
	for _, tt := range tests {
		if got := StripCodeBlock(tt.in); got != tt.want {
			t.Errorf("StripCodeBlock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
