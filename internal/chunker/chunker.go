// Package chunker turns a parsed DocTree into the numbered blocks an outline
// is built from.
package chunker

import (
	"fmt"
	"strings"

	"github.com/dgallion1/mindgest/internal/doctree"
)

// Config controls block splitting.
type Config struct {
	MaxTokens int // Longest block body in estimated tokens.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxTokens: 300}
}

// Blocks walks tree in document order. Every heading becomes a header block
// and every content node one or more body blocks of at most MaxTokens. Blocks
// are numbered from 0; GroupID is the index of the enclosing top-level
// section, so a section's blocks share a group.
func Blocks(tree *doctree.DocTree, cfg Config) []doctree.Block {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	w := &walker{cfg: cfg, paginated: tree.Paginated}
	for i, child := range tree.Children {
		w.group = i
		w.walk(child, nil)
	}
	return w.blocks
}

type walker struct {
	cfg       Config
	paginated bool
	group     int
	blocks    []doctree.Block
}

func (w *walker) walk(node, parent *doctree.DocNode) {
	if node.Title != "" {
		w.emit(doctree.Block{
			Text:      node.Title,
			BlockType: doctree.BlockHeader,
			Level:     node.Level,
			Tag:       w.headingTag(node.Level),
			XPath:     node.Path,
			Page:      node.Page,
		}, parent)
	}

	if node.Text != "" {
		kind := node.Kind
		if kind == "" {
			kind = doctree.BlockParagraph
		}
		for _, part := range w.split(node.Text, kind) {
			w.emit(doctree.Block{
				Text:         part,
				BlockType:    kind,
				Tag:          w.bodyTag(kind),
				XPath:        node.Path,
				Page:         node.Page,
				TableHeaders: node.Headers,
			}, parent)
		}
	}

	// Content nodes belong to the heading above them.
	next := parent
	if node.Title != "" {
		next = node
	}
	for _, child := range node.Children {
		w.walk(child, next)
	}
}

func (w *walker) emit(b doctree.Block, parent *doctree.DocNode) {
	b.ID = doctree.IntPtr(len(w.blocks))
	b.GroupID = doctree.IntPtr(w.group)
	if parent != nil {
		b.ParentTag = w.headingTag(parent.Level)
		b.SectionLevel = parent.Level
	}
	w.blocks = append(w.blocks, b)
}

func (w *walker) headingTag(level int) string {
	level = min(max(level, 1), 6)
	if w.paginated {
		return fmt.Sprintf("pdf_h%d", level)
	}
	return fmt.Sprintf("h%d", level)
}

func (w *walker) bodyTag(kind string) string {
	if w.paginated {
		if kind == doctree.BlockList {
			return "pdf_list"
		}
		return "pdf_paragraph"
	}
	switch kind {
	case doctree.BlockList:
		return "ul"
	case doctree.BlockTable:
		return "table"
	case doctree.BlockCode:
		return "pre"
	}
	return "p"
}

// split breaks text into parts of at most MaxTokens. Lists, tables and code
// are cut between lines so rows and items stay whole; prose is cut between
// paragraphs, then sentences.
func (w *walker) split(text, kind string) []string {
	if EstimateTokens(text) <= w.cfg.MaxTokens {
		return []string{text}
	}
	switch kind {
	case doctree.BlockList, doctree.BlockTable, doctree.BlockCode:
		return pack(strings.Split(text, "\n"), "\n", w.cfg.MaxTokens)
	}

	var out []string
	for _, para := range splitByParagraphs(text) {
		if EstimateTokens(para) > w.cfg.MaxTokens {
			out = append(out, pack(splitSentences(para), " ", w.cfg.MaxTokens)...)
			continue
		}
		out = append(out, para)
	}
	return pack(out, "\n\n", w.cfg.MaxTokens)
}

// pack joins consecutive parts with sep, a whitespace separator, while the
// result stays within maxTokens. A single part over the limit is emitted on
// its own.
func pack(parts []string, sep string, maxTokens int) []string {
	var result []string
	var current strings.Builder
	words := 0

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		partWords := len(strings.Fields(part))
		if words > 0 && wordsToTokens(words+partWords) > maxTokens {
			result = append(result, current.String())
			current.Reset()
			words = 0
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(part)
		words += partWords
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}

	return sentences
}
