package catalog

import (
	"strings"
	"testing"

	"github.com/dgallion1/mindgest/internal/doctree"
)

func block(id int, text string) doctree.Block {
	return doctree.Block{ID: doctree.IntPtr(id), Text: text}
}

func TestBuildPaginated(t *testing.T) {
	b1 := block(1, "Intro")
	b1.Tag = "pdf_h1"
	b1.FontSize = 14
	b2 := block(2, "Body   text\nhere")

	got := Build([]doctree.Block{b1, b2}, Options{MaxSnippetChars: 240, Paginated: true})
	want := strings.Join([]string{
		"[b1] [HEADER L1] font:14.0  size:26.3%Intro",
		"[b2] [PARAGRAPH]  size:73.7%Body text here",
	}, "\n")
	if got != want {
		t.Errorf("catalog mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildPageGroups(t *testing.T) {
	b1 := block(1, "Alpha")
	b1.BlockType = doctree.BlockHeader
	b1.Level = 2
	b1.GroupID = doctree.IntPtr(1)
	b2 := block(2, "aaaa aaaa")
	b2.GroupID = doctree.IntPtr(1)
	b3 := block(3, "bbbbbb")
	b3.GroupID = doctree.IntPtr(2)

	got := Build([]doctree.Block{b1, b2, b3}, Options{MaxSnippetChars: 240})
	want := strings.Join([]string{
		"DOCUMENT STRUCTURE PROPORTIONS: Group 1: 70.0% | Group 2: 30.0%",
		proportionsNote,
		"",
		"[b1] [HEADER L2] Alpha",
		"[b2] [PARAGRAPH]  group_size:70.0% size:45.0%aaaa aaaa",
		"",
		"[b3] [PARAGRAPH]  group_size:30.0% size:30.0%bbbbbb",
	}, "\n")
	if got != want {
		t.Errorf("catalog mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildSkipsUnidentifiedAndEmpty(t *testing.T) {
	blocks := []doctree.Block{
		{Text: "no id"},
		block(1, "   "),
		block(2, "kept"),
	}
	got := Build(blocks, Options{})
	if strings.Contains(got, "no id") || strings.Contains(got, "[b1]") {
		t.Errorf("unexpected lines in %q", got)
	}
	if !strings.HasPrefix(got, "[b2] ") {
		t.Errorf("got %q, want line for b2", got)
	}
}

func TestBuildTruncatesSnippet(t *testing.T) {
	got := Build([]doctree.Block{block(7, "ééééééééé")}, Options{MaxSnippetChars: 3, Paginated: true})
	if !strings.HasSuffix(got, "%ééé") {
		t.Errorf("got %q, want 3-rune snippet", got)
	}
}

func TestBuildTableAndParent(t *testing.T) {
	b := block(4, "cells")
	b.BlockType = doctree.BlockTable
	b.TableHeaders = []string{"a", "b"}
	b.ParentTag = "section"
	b.VisualWeight = 18

	got := Build([]doctree.Block{b}, Options{})
	want := "[b4] [TABLE] cols:2 parent:section weight:18.0  group_size:100.0% size:100.0%cells"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFilter(t *testing.T) {
	lines := []string{
		"DOCUMENT STRUCTURE PROPORTIONS: Group 1: 50.0%",
		"[b1] one",
		"[b2] two",
		"",
		"[b3] three",
	}
	tests := []struct {
		name string
		ids  []int
		want string
	}{
		{"ordered by ids", []int{3, 1}, "[b3] three\n[b1] one"},
		{"missing skipped", []int{9, 2}, "[b2] two"},
		{"none", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filter(lines, tt.ids); got != tt.want {
				t.Errorf("Filter(%v) = %q, want %q", tt.ids, got, tt.want)
			}
		})
	}
}

func TestLengths(t *testing.T) {
	blocks := []doctree.Block{
		block(1, "ab  cd"),
		block(2, ""),
		{Text: "ignored"},
		block(1, "longer duplicate"),
	}
	lengths, total := Lengths(blocks)
	if lengths[1] != 5 {
		t.Errorf("lengths[1] = %d, want 5", lengths[1])
	}
	if lengths[2] != 0 {
		t.Errorf("lengths[2] = %d, want 0", lengths[2])
	}
	if total != 5+16 {
		t.Errorf("total = %d, want 21", total)
	}
}
