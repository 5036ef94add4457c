package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/mindgest/internal/doctree"
)

// DOCXParser handles .docx files. Heading styles open sections; list
// paragraph runs are merged into one list node.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// go-docx needs a ReaderAt+size, so write to temp file.
	tmp, err := os.CreateTemp("", "mindgest-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	s := newSections()
	var items []string
	flushList := func() {
		if len(items) > 0 {
			s.content(&doctree.DocNode{Kind: doctree.BlockList, Text: strings.Join(items, "\n")})
			items = nil
		}
	}

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		style := docxStyle(para)
		if isListStyle(style) {
			items = append(items, "- "+text)
			continue
		}
		flushList()
		if level := styleHeadingLevel(style); level > 0 {
			s.heading(level, text, "")
			continue
		}
		s.content(&doctree.DocNode{Kind: doctree.BlockParagraph, Text: text})
	}
	flushList()

	return &doctree.DocTree{
		Title:    strings.TrimSuffix(filename, ".docx"),
		Children: s.nodes(),
	}, nil
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

// styleHeadingLevel maps "Heading2", "heading 2" and "Title" to a level.
func styleHeadingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return 1
	}
	if len(s) == len("heading")+1 && strings.HasPrefix(s, "heading") {
		if d := s[len(s)-1]; d >= '1' && d <= '6' {
			return int(d - '0')
		}
	}
	return 0
}

func isListStyle(style string) bool {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return strings.HasPrefix(s, "listparagraph") || strings.HasPrefix(s, "listbullet") || strings.HasPrefix(s, "listnumber")
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
