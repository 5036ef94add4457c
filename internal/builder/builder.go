// Package builder drafts the outline: it asks the content oracle for the
// document's top-level topics, sizes each topic from the embedding index and
// then requests one subtree per topic.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/mindgest/internal/budget"
	"github.com/dgallion1/mindgest/internal/catalog"
	"github.com/dgallion1/mindgest/internal/oracle"
	"github.com/dgallion1/mindgest/internal/retrieval"
)

// DefaultFilterTopK is the number of catalog lines shown per topic.
const DefaultFilterTopK = 15

// Topic is a top-level section proposed by the oracle.
type Topic struct {
	Name       string
	Importance int // 1..10
}

var topicRe = regexp.MustCompile(`^##\s+(.+?)(?:\s+\[importance:(\d+)\])?$`)

// ParseTopics reads "## Name [importance:N]" lines. Importance defaults to 5
// and is clamped to 1..10. Other lines and repeated names are ignored.
func ParseTopics(text string) []Topic {
	var topics []Topic
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		m := topicRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		imp := 5
		if m[2] != "" {
			n, err := strconv.Atoi(m[2])
			if err != nil {
				n = 10
			}
			imp = min(max(n, 1), 10)
		}
		topics = append(topics, Topic{Name: name, Importance: imp})
	}
	return topics
}

// Input is everything Build needs about the document.
type Input struct {
	Title     string
	Catalog   string
	Paginated bool
	Index     *retrieval.Index
	Lengths   map[int]int // normalized text length per block id
	Total     int         // sum of Lengths
	Detail    budget.DetailLevel
}

// Outline is the drafted outline with the per-topic figures the leaf
// selector needs. Fallback outlines carry empty maps.
type Outline struct {
	Text       string
	Topics     []Topic
	Volumes    map[string]float64
	Importance map[string]int
	Fallback   bool
}

// Builder drafts outlines.
type Builder struct {
	llm oracle.Completer
	emb oracle.Embedder
	log *slog.Logger

	Weights     budget.Weights
	FilterTopK  int
	Temperature float64
}

func New(llm oracle.Completer, emb oracle.Embedder, log *slog.Logger) *Builder {
	return &Builder{
		llm:         llm,
		emb:         emb,
		log:         log,
		Weights:     budget.DefaultWeights(),
		FilterTopK:  DefaultFilterTopK,
		Temperature: 0.02,
	}
}

// Build drafts the outline. Failing to discover topics or to produce the
// fallback outline is fatal; a failure on one topic leaves its heading empty.
func (b *Builder) Build(ctx context.Context, in Input) (Outline, error) {
	out := Outline{
		Volumes:    make(map[string]float64),
		Importance: make(map[string]int),
	}

	raw, err := b.llm.Complete(ctx, oracle.Request{
		System:      oracle.TopicsPrompt,
		User:        oracle.CatalogMessage(in.Title, in.Catalog),
		Temperature: b.Temperature,
	})
	if err != nil {
		return Outline{}, fmt.Errorf("discover topics: %w", err)
	}
	out.Topics = ParseTopics(raw)

	if len(out.Topics) == 0 {
		b.log.Warn("no topics discovered, drafting outline in one shot", "title", in.Title)
		text, err := b.llm.Complete(ctx, oracle.Request{
			System:      oracle.FallbackTreePrompt(in.Catalog, in.Paginated),
			User:        oracle.CatalogMessage(in.Title, in.Catalog),
			Temperature: b.Temperature,
		})
		if err != nil {
			return Outline{}, fmt.Errorf("fallback outline: %w", err)
		}
		out.Text = oracle.StripCodeBlock(text)
		out.Fallback = true
		return out, nil
	}

	catalogLines := strings.Split(in.Catalog, "\n")
	lines := []string{"# " + in.Title, ""}
	for _, topic := range out.Topics {
		if err := ctx.Err(); err != nil {
			return Outline{}, err
		}
		out.Importance[topic.Name] = topic.Importance
		lines = append(lines, "## "+topic.Name)
		lines = append(lines, b.subtree(ctx, in, topic, catalogLines, out.Volumes)...)
	}
	out.Text = strings.Join(lines, "\n")
	return out, nil
}

// subtree returns the lines that follow a topic heading and records the
// topic's volume.
func (b *Builder) subtree(ctx context.Context, in Input, topic Topic, catalogLines []string, volumes map[string]float64) []string {
	log := b.log.With("topic", topic.Name)

	vec, err := oracle.EmbedOne(ctx, b.emb, topic.Name)
	if err != nil {
		log.Warn("embed topic failed", "error", err)
		volumes[topic.Name] = 0
		return []string{""}
	}

	volume := b.Weights.TopicVolume(in.Index, vec, in.Lengths, in.Total)
	volumes[topic.Name] = volume
	quota := b.Weights.AdjustedQuota(volume, topic.Importance, in.Detail)

	filtered := catalog.Filter(catalogLines, in.Index.TopKIDs(vec, b.FilterTopK))
	if filtered == "" {
		return []string{""}
	}

	text, err := b.llm.Complete(ctx, oracle.Request{
		System:      oracle.SubtreePrompt(topic.Name, volume, quota, string(in.Detail)),
		User:        oracle.SubtreeMessage(topic.Name, filtered),
		Temperature: b.Temperature,
	})
	if err != nil {
		log.Warn("subtree failed", "error", err)
		return nil
	}
	text = oracle.StripCodeBlock(text)
	log.Info("topic outlined", "volume", volume, "importance", topic.Importance, "quota", quota)
	if text == "" {
		return nil
	}
	return []string{"", text, ""}
}
