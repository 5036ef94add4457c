package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/mindgest/internal/doctree"
)

// MarkdownParser handles Markdown files using goldmark. Headings nest by
// level; paragraphs, lists, code blocks and GFM tables become typed content
// nodes.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	s := newSections()
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			s.heading(node.Level, inlineText(node, src), "")
		case *ast.List:
			s.content(&doctree.DocNode{Kind: doctree.BlockList, Text: listText(node, src)})
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			s.content(&doctree.DocNode{Kind: doctree.BlockCode, Text: rawLines(n, src)})
		case *east.Table:
			headers, body := tableText(node, src)
			s.content(&doctree.DocNode{Kind: doctree.BlockTable, Text: body, Headers: headers})
		case *ast.ThematicBreak, *ast.HTMLBlock:
		default:
			s.content(&doctree.DocNode{Kind: doctree.BlockParagraph, Text: inlineText(n, src)})
		}
	}

	return &doctree.DocTree{
		Title:    strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown"),
		Children: s.nodes(),
	}, nil
}

// inlineText concatenates the text of every inline under n. Line breaks
// become spaces and block boundaries become newlines.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			if c != n && c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

func listText(list *ast.List, src []byte) string {
	var items []string
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		if t := inlineText(item, src); t != "" {
			items = append(items, "- "+strings.ReplaceAll(t, "\n", " "))
		}
	}
	return strings.Join(items, "\n")
}

func rawLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimSpace(buf.String())
}

// tableText returns the header cells and one "a | b" line per body row.
func tableText(table *east.Table, src []byte) ([]string, string) {
	var headers []string
	var rows []string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, inlineText(cell, src))
		}
		if _, ok := row.(*east.TableHeader); ok {
			headers = cells
			continue
		}
		rows = append(rows, strings.Join(cells, " | "))
	}
	return headers, strings.Join(rows, "\n")
}
