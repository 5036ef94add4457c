// Package outline reads and rewrites Markdown outlines line by line.
//
// An outline is plain text: "#" headings set the section context, list items
// ("- x", "* x", "1. x") are leaves, and every other line is kept verbatim.
// Line indices are zero-based positions in the original text and identify
// leaves across every rewriting step.
package outline

import (
	"regexp"
	"strings"
)

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	bulletRe   = regexp.MustCompile(`^[-*]\s+(.+)$`)
	numberedRe = regexp.MustCompile(`^\d+\.\s+(.+)$`)
)

// Kind classifies an outline line.
type Kind int

const (
	Text Kind = iota
	Heading
	Bullet
)

// Line is one classified line of an outline.
type Line struct {
	Raw     string // exact source text
	Kind    Kind
	Depth   int    // heading depth 1..6, 0 otherwise
	Content string // heading title or bullet text, trimmed
}

// Tree is a parsed outline. String returns the exact input text.
type Tree struct {
	Lines []Line
}

// Parse classifies every line of text.
func Parse(text string) *Tree {
	raw := strings.Split(text, "\n")
	t := &Tree{Lines: make([]Line, len(raw))}
	for i, r := range raw {
		t.Lines[i] = classify(r)
	}
	return t
}

func (t *Tree) String() string {
	out := make([]string, len(t.Lines))
	for i, l := range t.Lines {
		out[i] = l.Raw
	}
	return strings.Join(out, "\n")
}

func classify(raw string) Line {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Line{Raw: raw}
	}
	if m := headingRe.FindStringSubmatch(s); m != nil {
		return Line{Raw: raw, Kind: Heading, Depth: len(m[1]), Content: strings.TrimSpace(m[2])}
	}
	if m := bulletRe.FindStringSubmatch(s); m != nil {
		return Line{Raw: raw, Kind: Bullet, Content: strings.TrimSpace(m[1])}
	}
	if m := numberedRe.FindStringSubmatch(s); m != nil {
		return Line{Raw: raw, Kind: Bullet, Content: strings.TrimSpace(m[1])}
	}
	return Line{Raw: raw}
}

// RootBranch names the bucket of leaves that sit above any topic heading.
// Heading titles are never empty, so it cannot collide with a topic.
const RootBranch = ""

// Leaf is a list item of the outline together with its heading context.
type Leaf struct {
	Line    int      // zero-based line index in the outline text
	Text    string   // bullet text
	Context []string // [topic] or [topic, subsection]; empty above the first topic
}

// Branch returns the top-level topic the leaf belongs to, or RootBranch.
func (l Leaf) Branch() string {
	if len(l.Context) == 0 {
		return RootBranch
	}
	return l.Context[0]
}

// Query is the retrieval query for the leaf: the last two context elements
// joined by " / ", then " — " and the bullet text.
func (l Leaf) Query() string {
	if len(l.Context) == 0 {
		return l.Text
	}
	return strings.Join(lastN(l.Context, 2), " / ") + " — " + l.Text
}

// ContextPath is the last two context elements joined by " / ".
func (l Leaf) ContextPath() string {
	return strings.Join(lastN(l.Context, 2), " / ")
}

func lastN(s []string, n int) []string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

// ExtractLeaves returns every leaf of the outline in document order.
// A depth-1 heading clears the context, depth 2 starts a topic, and deeper
// headings replace the subsection under the current topic.
func ExtractLeaves(text string) []Leaf {
	var (
		ctx    []string
		leaves []Leaf
	)
	for i, l := range Parse(text).Lines {
		switch l.Kind {
		case Heading:
			switch {
			case l.Depth == 1:
				ctx = nil
			case l.Depth == 2:
				ctx = []string{l.Content}
			case len(ctx) >= 1:
				ctx = []string{ctx[0], l.Content}
			default:
				ctx = []string{l.Content}
			}
		case Bullet:
			leaves = append(leaves, Leaf{
				Line:    i,
				Text:    l.Content,
				Context: append([]string(nil), ctx...),
			})
		}
	}
	return leaves
}
