package parser

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/mindgest/internal/doctree"
)

const maxHeadingChars = 60

// TextParser handles plain text files. Blank lines separate paragraphs; a
// short single-line paragraph without closing punctuation that is followed
// by more text is taken as a section heading.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	s := newSections()
	for i, para := range paragraphs {
		if i < len(paragraphs)-1 && looksLikeHeading(para) {
			s.heading(2, para, "")
			continue
		}
		s.content(&doctree.DocNode{Kind: doctree.BlockParagraph, Text: para})
	}

	return &doctree.DocTree{
		Title:    strings.TrimSuffix(filename, ".txt"),
		Children: s.nodes(),
	}, nil
}

func looksLikeHeading(para string) bool {
	para = strings.TrimSpace(para)
	if strings.Contains(para, "\n") || utf8.RuneCountInString(para) > maxHeadingChars {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(para)
	return !strings.ContainsRune(".!?:;,", last)
}
