package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/mindgest/internal/doctree"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// Options tune parser selection.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// sections nests headings by level and files content under the most recent
// heading. Content before the first heading sits at the top level.
type sections struct {
	root  *doctree.DocNode
	stack []sectionEntry
}

type sectionEntry struct {
	node  *doctree.DocNode
	level int
}

func newSections() *sections {
	root := &doctree.DocNode{}
	return &sections{root: root, stack: []sectionEntry{{node: root, level: 0}}}
}

func (s *sections) heading(level int, title, path string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	n := &doctree.DocNode{Title: title, Level: level, Path: path}
	// Pop until the top has a lower level.
	for len(s.stack) > 1 && s.stack[len(s.stack)-1].level >= level {
		s.stack = s.stack[:len(s.stack)-1]
	}
	parent := s.stack[len(s.stack)-1].node
	parent.Children = append(parent.Children, n)
	s.stack = append(s.stack, sectionEntry{node: n, level: level})
}

func (s *sections) content(n *doctree.DocNode) {
	n.Text = strings.TrimSpace(n.Text)
	if n.Text == "" {
		return
	}
	if n.Kind == "" {
		n.Kind = doctree.BlockParagraph
	}
	top := s.stack[len(s.stack)-1].node
	top.Children = append(top.Children, n)
}

func (s *sections) nodes() []*doctree.DocNode {
	return s.root.Children
}
