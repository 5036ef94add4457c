package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/mindgest/internal/budget"
	"github.com/dgallion1/mindgest/internal/builder"
	"github.com/dgallion1/mindgest/internal/catalog"
	"github.com/dgallion1/mindgest/internal/config"
	"github.com/dgallion1/mindgest/internal/doctree"
	"github.com/dgallion1/mindgest/internal/expand"
	"github.com/dgallion1/mindgest/internal/oracle"
	"github.com/dgallion1/mindgest/internal/outline"
	"github.com/dgallion1/mindgest/internal/retrieval"
	"github.com/dgallion1/mindgest/internal/selection"
)

// ErrEmptyInput is returned when a document has nothing to embed.
var ErrEmptyInput = errors.New("no blocks to embed")

const (
	maxEmbedChars  = 4000
	catalogSnippet = 220
)

// Options tune a single build.
type Options struct {
	MaxLeaves     int
	Detail        budget.DetailLevel
	PruneMinDepth int

	// OnPhase, if set, is called as the build enters each phase.
	OnPhase func(JobStatus)
	// OnWarning, if set, receives non-fatal problems of the build.
	OnWarning func(string)
}

func DefaultOptions() Options {
	return Options{
		MaxLeaves:     30,
		Detail:        budget.DetailMedium,
		PruneMinDepth: 2,
	}
}

// Meta describes how a build went.
type Meta struct {
	Title          string             `json:"title"`
	URL            string             `json:"url,omitempty"`
	BlocksCount    int                `json:"blocks_count"`
	EmbeddedBlocks int                `json:"embedded_blocks"`
	Topics         int                `json:"topics"`
	LeavesTotal    int                `json:"leaves_total"`
	LeavesSelected int                `json:"leaves_selected"`
	LeavesExpanded int                `json:"leaves_expanded"`
	Branches       int                `json:"branches"`
	Paginated      bool               `json:"is_pdf"`
	Fallback       bool               `json:"fallback"`
	DetailLevel    budget.DetailLevel `json:"detail_level"`
	DurationMS     int64              `json:"duration_ms"`
}

// Result is the final outline.
type Result struct {
	Markdown string `json:"markdown"`
	Meta     Meta   `json:"meta"`
}

// Pipeline wires the build stages together. It holds no per-document state,
// so one Pipeline serves concurrent builds.
type Pipeline struct {
	emb      oracle.Embedder
	Builder  *builder.Builder
	Selector *selection.Selector
	Expander *expand.Expander
	log      *slog.Logger
}

func New(llm oracle.Completer, emb oracle.Embedder, log *slog.Logger) *Pipeline {
	return &Pipeline{
		emb:      emb,
		Builder:  builder.New(llm, emb, log),
		Selector: selection.New(),
		Expander: expand.New(llm, emb, log),
		log:      log,
	}
}

// Configure applies the leaf expansion limits from cfg.
func (p *Pipeline) Configure(cfg config.Config) {
	if cfg.MaxConcurrentLeaves > 0 {
		p.Expander.Concurrency = cfg.MaxConcurrentLeaves
	}
	p.Expander.Timeout = cfg.LeafTimeout
	p.Expander.MaxRetries = cfg.OracleMaxRetries
}

// Run builds the outline of doc. Only a failure to embed the blocks or to
// draft the outline is an error; leaf-level failures just drop the leaf.
func (p *Pipeline) Run(ctx context.Context, doc doctree.Document, opts Options) (Result, error) {
	start := time.Now()
	if opts.MaxLeaves <= 0 {
		opts.MaxLeaves = DefaultOptions().MaxLeaves
	}
	if opts.Detail == "" {
		opts.Detail = budget.DetailMedium
	}
	phase := func(s JobStatus) {
		if opts.OnPhase != nil {
			opts.OnPhase(s)
		}
	}
	warn := func(format string, args ...any) {
		if opts.OnWarning != nil {
			opts.OnWarning(fmt.Sprintf(format, args...))
		}
	}
	log := p.log.With("title", doc.Title)

	meta := Meta{
		Title:       doc.Title,
		URL:         doc.URL,
		BlocksCount: len(doc.Blocks),
		Paginated:   doc.Paginated(),
		DetailLevel: opts.Detail,
	}

	// Phase 1: embed every block with text.
	phase(StatusEmbedding)
	ids, texts, sources := embeddable(doc.Blocks)
	if len(ids) == 0 {
		return Result{Meta: meta}, ErrEmptyInput
	}
	vecs, err := p.emb.Embed(ctx, texts)
	if err != nil {
		return Result{Meta: meta}, fmt.Errorf("embed blocks: %w", err)
	}
	idx, err := retrieval.NewIndex(ids, vecs)
	if err != nil {
		return Result{Meta: meta}, fmt.Errorf("index blocks: %w", err)
	}
	meta.EmbeddedBlocks = len(ids)
	log.Info("blocks embedded", "blocks", len(doc.Blocks), "embedded", len(ids))

	// Phase 2: draft the outline from the catalog.
	phase(StatusOutlining)
	lengths, total := catalog.Lengths(doc.Blocks)
	draft, err := p.Builder.Build(ctx, builder.Input{
		Title:     doc.Title,
		Catalog:   catalog.Build(doc.Blocks, catalog.Options{MaxSnippetChars: catalogSnippet, Paginated: doc.Paginated()}),
		Paginated: doc.Paginated(),
		Index:     idx,
		Lengths:   lengths,
		Total:     total,
		Detail:    opts.Detail,
	})
	if err != nil {
		return Result{Meta: meta}, fmt.Errorf("build outline: %w", err)
	}
	meta.Topics = len(draft.Topics)
	meta.Fallback = draft.Fallback
	if draft.Fallback {
		warn("no topics discovered, outline drafted in one pass")
	}

	// Phase 3: pick the leaves worth expanding.
	phase(StatusSelecting)
	leaves := outline.ExtractLeaves(draft.Text)
	picked := p.Selector.Select(leaves, opts.MaxLeaves, draft.Volumes, draft.Importance)
	meta.LeavesTotal = len(leaves)
	meta.LeavesSelected = len(picked.Leaves)
	meta.Branches = len(picked.Branches)
	log.Info("leaves selected", "total", len(leaves), "selected", len(picked.Leaves), "branches", len(picked.Branches))

	// Phase 4: expand them.
	phase(StatusExpanding)
	expansions := p.Expander.Expand(ctx, picked.Leaves, expand.Source{
		Index:     idx,
		Texts:     sources,
		Paginated: doc.Paginated(),
		URL:       doc.URL,
		XPaths:    doc.XPaths(),
	})
	meta.LeavesExpanded = len(expansions)
	if failed := len(picked.Leaves) - len(expansions); failed > 0 {
		warn("%d of %d selected leaves could not be expanded", failed, len(picked.Leaves))
	}

	// Phase 5: drop what was not expanded and splice the prose in.
	phase(StatusAssembling)
	keep := make(map[int]bool, len(expansions))
	for line := range expansions {
		keep[line] = true
	}
	text := outline.PruneUnselected(draft.Text, keep)
	text = outline.PruneEmptySections(text, opts.PruneMinDepth)
	text = outline.ApplyExpansions(text, expansions)

	meta.DurationMS = time.Since(start).Milliseconds()
	log.Info("outline built", "leaves_expanded", len(expansions), "duration_ms", meta.DurationMS)
	return Result{Markdown: text, Meta: meta}, nil
}

// embeddable returns the ids and capped texts to embed, in block order, and
// the normalized text of the first block carrying each id.
func embeddable(blocks []doctree.Block) ([]int, []string, map[int]string) {
	var ids []int
	var texts []string
	sources := make(map[int]string)
	for _, b := range blocks {
		if b.ID == nil {
			continue
		}
		t := doctree.NormalizeWS(b.Text)
		if t == "" {
			continue
		}
		ids = append(ids, *b.ID)
		texts = append(texts, truncateRunes(t, maxEmbedChars))
		if _, ok := sources[*b.ID]; !ok {
			sources[*b.ID] = t
		}
	}
	return ids, texts, sources
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
