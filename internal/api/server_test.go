package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/mindgest/internal/budget"
	"github.com/dgallion1/mindgest/internal/config"
	"github.com/dgallion1/mindgest/internal/doctree"
	"github.com/dgallion1/mindgest/internal/oracle"
	"github.com/dgallion1/mindgest/internal/pipeline"
)

const testKey = "secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRunner struct {
	mu   sync.Mutex
	res  pipeline.Result
	err  error
	docs []doctree.Document
	opts []pipeline.Options
}

func (f *fakeRunner) Run(_ context.Context, doc doctree.Document, opts pipeline.Options) (pipeline.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	f.opts = append(f.opts, opts)
	return f.res, f.err
}

func (f *fakeRunner) last() (doctree.Document, pipeline.Options) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[len(f.docs)-1], f.opts[len(f.opts)-1]
}

func testConfig() config.Config {
	return config.Config{
		MindgestAPIKey:    testKey,
		MaxLeavesToExpand: 30,
		DetailLevel:       "medium",
		PruneMinDepth:     2,
		BlockMaxTokens:    300,
		WorkerCount:       1,
		MaxQueueSize:      4,
		JobTTL:            time.Hour,
		MaxUploadBytes:    1 << 20,
	}
}

func newTestServer(t *testing.T, runner *fakeRunner) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	cfg := testConfig()
	orch := pipeline.NewOrchestrator(cfg, runner, testLogger())
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	claude := oracle.NewClaudeClient(oracle.ClaudeConfig{APIKey: "k", Model: "test-model"})
	return NewServer(runner, orch, claude, testLogger(), cfg), orch
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

const pagePayload = `{
	"schema_version": "1",
	"input_type": "page_blocks",
	"page": {"url": "https://ex.com/a", "title": "A page"},
	"blocks": [
		{"block": 0, "xpath": "/html/body/h1", "tag": "h1", "text": "Intro", "blockType": "header", "level": 1},
		{"block": 1, "xpath": "/html/body/p[1]", "tag": "p", "text": "Body text.", "groupId": 2}
	],
	"detail_level": "high"
}`

func TestHealth_Public(t *testing.T) {
	s, _ := newTestServer(t, &fakeRunner{})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("expected ok status, got %s", rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t, &fakeRunner{})
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"wrong key", "Bearer nope"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/mindmap_markdown", strings.NewReader(pagePayload))
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", tt.name, rec.Code)
		}
	}
}

func TestMindmap_PageBlocks(t *testing.T) {
	runner := &fakeRunner{res: pipeline.Result{
		Markdown: "# A page\n\n## Intro\n- Body [b1]",
		Meta:     pipeline.Meta{EmbeddedBlocks: 2, LeavesExpanded: 1},
	}}
	s, _ := newTestServer(t, runner)

	rec := doJSON(t, s, http.MethodPost, "/api/mindmap_markdown", pagePayload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		OK       bool           `json:"ok"`
		Markdown string         `json:"markdown"`
		Meta     map[string]any `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.OK || resp.Markdown != runner.res.Markdown {
		t.Errorf("expected ok with markdown, got %+v", resp)
	}
	if resp.Meta["embedded_blocks"] != float64(2) {
		t.Errorf("expected embedded_blocks 2, got %v", resp.Meta["embedded_blocks"])
	}

	doc, opts := runner.last()
	if doc.Title != "A page" || doc.URL != "https://ex.com/a" || doc.Paginated() {
		t.Errorf("expected page document for https://ex.com/a, got %q %q %s", doc.Title, doc.URL, doc.Kind)
	}
	if len(doc.Blocks) != 2 || doc.Blocks[1].BlockID() != 1 || doc.Blocks[1].Group() != 2 {
		t.Errorf("expected blocks to decode with ids and groups, got %+v", doc.Blocks)
	}
	if opts.Detail != budget.DetailHigh || opts.MaxLeaves != 30 || opts.PruneMinDepth != 2 {
		t.Errorf("expected high/30/2 options, got %s/%d/%d", opts.Detail, opts.MaxLeaves, opts.PruneMinDepth)
	}
}

func TestMindmap_EmptyInputIsNotOK(t *testing.T) {
	s, _ := newTestServer(t, &fakeRunner{err: pipeline.ErrEmptyInput})
	rec := doJSON(t, s, http.MethodPost, "/api/mindmap_markdown", `{"input_type":"page_blocks","blocks":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp MindmapResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OK || resp.Markdown != "" {
		t.Errorf("expected ok=false with empty markdown, got %+v", resp)
	}
	meta, _ := resp.Meta.(map[string]any)
	if meta["error"] != pipeline.ErrEmptyInput.Error() {
		t.Errorf("expected error %q, got %v", pipeline.ErrEmptyInput, resp.Meta)
	}
}

func TestMindmap_OracleFailure(t *testing.T) {
	s, _ := newTestServer(t, &fakeRunner{err: errors.New("build outline: discover topics: boom")})
	rec := doJSON(t, s, http.MethodPost, "/api/mindmap_markdown", pagePayload)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":false`) {
		t.Errorf("expected ok=false, got %s", rec.Body.String())
	}
}

func TestMindmap_BadRequests(t *testing.T) {
	s, _ := newTestServer(t, &fakeRunner{})
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"input_type":`},
		{"unknown input type", `{"input_type":"video"}`},
		{"bad detail level", `{"input_type":"text","value":"x","detail_level":"extreme"}`},
		{"file without content", `{"input_type":"file"}`},
	}
	for _, tt := range tests {
		rec := doJSON(t, s, http.MethodPost, "/api/mindmap_markdown", tt.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d: %s", tt.name, rec.Code, rec.Body.String())
		}
	}
}

func TestUpload(t *testing.T) {
	runner := &fakeRunner{res: pipeline.Result{Markdown: "# notes"}}
	s, _ := newTestServer(t, runner)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "../docs/notes.md")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("# Notes\n\nSome text.\n"))
	mw.WriteField("max_leaves", "7")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/mindmap_markdown/upload", &body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	doc, opts := runner.last()
	if doc.URL != "notes.md" || len(doc.Blocks) != 2 {
		t.Errorf("expected 2 blocks from notes.md, got %d from %q", len(doc.Blocks), doc.URL)
	}
	if opts.MaxLeaves != 7 {
		t.Errorf("expected max leaves 7, got %d", opts.MaxLeaves)
	}
}

func TestUpload_UnsupportedType(t *testing.T) {
	s, _ := newTestServer(t, &fakeRunner{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "tool.exe")
	fw.Write([]byte("MZ"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/mindmap_markdown/upload", &body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestJobs_SubmitAndPoll(t *testing.T) {
	runner := &fakeRunner{res: pipeline.Result{Markdown: "# done"}}
	s, _ := newTestServer(t, runner)

	rec := doJSON(t, s, http.MethodPost, "/api/mindmap_markdown/jobs", pagePayload)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if accepted.PollURL != "/api/jobs/"+accepted.JobID {
		t.Errorf("expected poll url for %s, got %q", accepted.JobID, accepted.PollURL)
	}

	deadline := time.Now().Add(2 * time.Second)
	var snap pipeline.JobSnapshot
	for time.Now().Before(deadline) {
		rec = doJSON(t, s, http.MethodGet, accepted.PollURL, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if snap.Status.Done() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed job, got %q", snap.Status)
	}
	if snap.Result == nil || snap.Result.Markdown != "# done" {
		t.Errorf("expected result markdown, got %+v", snap.Result)
	}
}

func TestJobs_NotFound(t *testing.T) {
	s, _ := newTestServer(t, &fakeRunner{})
	rec := doJSON(t, s, http.MethodGet, "/api/jobs/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestLLMStats(t *testing.T) {
	s, _ := newTestServer(t, &fakeRunner{})
	s.claude.Stats.Record(120)
	s.claude.Stats.RecordFailure(40)

	rec := doJSON(t, s, http.MethodGet, "/api/stats/llm", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Model string               `json:"model"`
		Stats oracle.StatsSnapshot `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Model != "test-model" {
		t.Errorf("expected model %q, got %q", "test-model", resp.Model)
	}
	if resp.Stats.Count != 2 || resp.Stats.Failures != 1 {
		t.Errorf("expected 2 calls with 1 failure, got %d and %d", resp.Stats.Count, resp.Stats.Failures)
	}
}

func TestLLMStats_Unavailable(t *testing.T) {
	s := NewServer(&fakeRunner{}, nil, nil, testLogger(), testConfig())
	rec := doJSON(t, s, http.MethodGet, "/api/stats/llm", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":        "report.pdf",
		"../../etc/passwd":  "passwd",
		`C:\Users\a\doc.md`: "doc.md",
		"a..b.txt":          "a_b.txt",
		"..":                "unnamed",
		"":                  "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestBuildOptions_InvalidDetail(t *testing.T) {
	cfg := testConfig()
	cfg.DetailLevel = "verbose"
	cfg.MaxLeavesToExpand = 12
	opts := BuildOptions(cfg, testLogger())
	if opts.Detail != budget.DetailMedium || opts.MaxLeaves != 12 {
		t.Errorf("expected medium/12, got %s/%d", opts.Detail, opts.MaxLeaves)
	}
}
