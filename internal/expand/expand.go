// Package expand writes the prose of selected leaves concurrently, each from
// the source blocks nearest to the leaf.
package expand

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/mindgest/internal/oracle"
	"github.com/dgallion1/mindgest/internal/outline"
	"github.com/dgallion1/mindgest/internal/retrieval"
)

var errNoSources = errors.New("no source blocks with text")

var backoff = Backoff

// Source is the document a build expands leaves from.
type Source struct {
	Index     *retrieval.Index
	Texts     map[int]string // normalized block text by id
	Paginated bool
	URL       string
	XPaths    map[int]string // structural path by block id
}

// Expander runs the leaf oracle over many leaves with bounded fan-out.
type Expander struct {
	llm oracle.Completer
	emb oracle.Embedder
	log *slog.Logger

	Concurrency   int           // leaves in flight at once
	Timeout       time.Duration // per leaf, 0 for none
	MaxRetries    int           // extra attempts on retryable oracle errors
	TopK          int           // nearest blocks per leaf
	SourceChars   int           // per source block
	PromptSources int           // source blocks quoted in the prompt
	PromptChars   int           // per quoted block
	MaxProse      int           // characters of prose before references
	MaxTokens     int
	Temperature   float64
}

func New(llm oracle.Completer, emb oracle.Embedder, log *slog.Logger) *Expander {
	return &Expander{
		llm:           llm,
		emb:           emb,
		log:           log,
		Concurrency:   32,
		Timeout:       60 * time.Second,
		TopK:          3,
		SourceChars:   1200,
		PromptSources: 2,
		PromptChars:   800,
		MaxProse:      380,
		MaxTokens:     200,
		Temperature:   0.02,
	}
}

type result struct {
	text string
	err  error
}

// Expand returns the prose for every leaf that succeeded, keyed by the
// leaf's line. Failed leaves are logged and left out; one failure never
// cancels the others.
func (e *Expander) Expand(ctx context.Context, leaves []outline.Leaf, src Source) map[int]string {
	out := make(map[int]string, len(leaves))
	if len(leaves) == 0 {
		return out
	}

	queries := make([]string, len(leaves))
	for i, l := range leaves {
		queries[i] = l.Query()
	}
	vecs, err := e.emb.Embed(ctx, queries)
	if err == nil && len(vecs) != len(queries) {
		err = fmt.Errorf("expected %d vectors, got %d", len(queries), len(vecs))
	}
	if err != nil {
		e.log.Error("embed leaf queries failed, no leaf will be expanded", "leaves", len(leaves), "error", err)
		return out
	}

	results := make([]result, len(leaves))
	var g errgroup.Group
	g.SetLimit(max(e.Concurrency, 1))
	for i := range leaves {
		hits := src.Index.TopKIDs(vecs[i], e.TopK)
		g.Go(func() error {
			text, err := e.one(ctx, leaves[i], hits, src)
			results[i] = result{text: text, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		if r.err != nil {
			e.log.Warn("leaf expansion failed", "leaf_line", leaves[i].Line, "leaf", leaves[i].Text, "error", r.err)
			continue
		}
		out[leaves[i].Line] = r.text
	}
	return out
}

func (e *Expander) one(ctx context.Context, leaf outline.Leaf, hits []int, src Source) (string, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var chosen []oracle.Source
	for _, id := range hits {
		if txt := src.Texts[id]; txt != "" {
			chosen = append(chosen, oracle.Source{ID: id, Text: truncateRunes(txt, e.SourceChars)})
		}
	}
	if len(chosen) == 0 {
		return "", errNoSources
	}

	quoted := chosen[:min(len(chosen), e.PromptSources)]
	prompt := make([]oracle.Source, len(quoted))
	for i, s := range quoted {
		prompt[i] = oracle.Source{ID: s.ID, Text: truncateRunes(s.Text, e.PromptChars)}
	}

	raw, err := e.complete(ctx, oracle.Request{
		System:      oracle.LeafPrompt,
		User:        oracle.LeafMessage(leaf.ContextPath(), leaf.Text, prompt),
		MaxTokens:   e.MaxTokens,
		Temperature: e.Temperature,
	})
	if err != nil {
		return "", err
	}

	line := outline.OneLine(raw)
	if err := validateProse(outline.StripRefs(line)); err != nil {
		return "", err
	}

	if src.Paginated {
		return outline.CapProse(outline.StripRefs(line), e.MaxProse), nil
	}
	ids := make([]int, len(chosen))
	for i, s := range chosen {
		ids[i] = s.ID
	}
	line = outline.EnsureBlockRefs(line, ids, e.MaxProse)
	return outline.Linkify(line, src.URL, src.XPaths), nil
}

// complete calls the oracle, retrying retryable errors up to MaxRetries times.
func (e *Expander) complete(ctx context.Context, req oracle.Request) (string, error) {
	for attempt := 0; ; attempt++ {
		out, err := e.llm.Complete(ctx, req)
		if err == nil || !oracle.IsRetryable(err) || attempt >= e.MaxRetries {
			return out, err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
