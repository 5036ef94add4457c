package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/mindgest/internal/doctree"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.

## Section B

Section B content.
`
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Title != "doc" {
		t.Errorf("expected title %q, got %q", "doc", tree.Title)
	}

	// Top-level: one h1 ("Title")
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level child (h1), got %d", len(tree.Children))
	}

	h1 := tree.Children[0]
	if h1.Title != "Title" || h1.Level != 1 {
		t.Errorf("expected h1 %q, got %q (level %d)", "Title", h1.Title, h1.Level)
	}

	// h1 holds the intro paragraph and two h2 sections.
	if len(h1.Children) != 3 {
		t.Fatalf("expected 3 children under h1, got %d", len(h1.Children))
	}
	intro := h1.Children[0]
	if intro.Title != "" || intro.Kind != doctree.BlockParagraph || intro.Text != "Intro text." {
		t.Errorf("expected intro paragraph, got %+v", intro)
	}

	secA := h1.Children[1]
	if secA.Title != "Section A" || secA.Level != 2 {
		t.Errorf("expected %q at level 2, got %q at %d", "Section A", secA.Title, secA.Level)
	}
	if len(secA.Children) != 2 {
		t.Fatalf("expected paragraph and h3 under Section A, got %d children", len(secA.Children))
	}
	if secA.Children[0].Text != "Section A content." {
		t.Errorf("expected %q, got %q", "Section A content.", secA.Children[0].Text)
	}
	sub := secA.Children[1]
	if sub.Title != "Subsection A1" || sub.Level != 3 {
		t.Errorf("expected %q at level 3, got %q at %d", "Subsection A1", sub.Title, sub.Level)
	}

	secB := h1.Children[2]
	if secB.Title != "Section B" {
		t.Errorf("expected %q, got %q", "Section B", secB.Title)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := `Just some plain text.

Another paragraph here.`

	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 top-level paragraphs, got %d", len(tree.Children))
	}
	if tree.Children[0].Text != "Just some plain text." {
		t.Errorf("expected first paragraph, got %q", tree.Children[0].Text)
	}
	if tree.Children[1].Text != "Another paragraph here." {
		t.Errorf("expected second paragraph, got %q", tree.Children[1].Text)
	}
}

func TestMarkdownParser_TypedContent(t *testing.T) {
	input := "# API Reference\n\n" +
		"Some *intro* with `code`.\n\n" +
		"- first item\n- second item\n\n" +
		"```\nGET /api/users\nPOST /api/users\n```\n\n" +
		"| Name | Role |\n|------|------|\n| Ann | admin |\n| Bob | user |\n"

	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level child, got %d", len(tree.Children))
	}

	got := tree.Children[0].Children
	if len(got) != 4 {
		t.Fatalf("expected 4 content nodes, got %d", len(got))
	}

	tests := []struct {
		kind string
		text string
	}{
		{doctree.BlockParagraph, "Some intro with code."},
		{doctree.BlockList, "- first item\n- second item"},
		{doctree.BlockCode, "GET /api/users\nPOST /api/users"},
		{doctree.BlockTable, "Ann | admin\nBob | user"},
	}
	for i, tt := range tests {
		if got[i].Kind != tt.kind {
			t.Errorf("node %d: expected kind %q, got %q", i, tt.kind, got[i].Kind)
		}
		if got[i].Text != tt.text {
			t.Errorf("node %d: expected text %q, got %q", i, tt.text, got[i].Text)
		}
	}
	if !reflect.DeepEqual(got[3].Headers, []string{"Name", "Role"}) {
		t.Errorf("expected table headers [Name Role], got %v", got[3].Headers)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected 0 children for empty input, got %d", len(tree.Children))
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		tree, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if tree.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, tree.Title)
		}
	}
}
