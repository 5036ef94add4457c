// Package source turns request payloads (page blocks, pasted text or an
// uploaded file) into documents ready for an outline build.
package source

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/mindgest/internal/budget"
	"github.com/dgallion1/mindgest/internal/chunker"
	"github.com/dgallion1/mindgest/internal/doctree"
	"github.com/dgallion1/mindgest/internal/parser"
	"github.com/dgallion1/mindgest/internal/pipeline"
)

// Input types.
const (
	InputPageBlocks = "page_blocks"
	InputText       = "text"
	InputFile       = "file"
)

const defaultPageURL = "current_page"

var (
	ErrUnsupportedInput = errors.New("unsupported input type")
	ErrFileTooLarge     = errors.New("file too large")
)

type Client struct {
	Kind    string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

type Page struct {
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// File is an uploaded document, base64 encoded.
type File struct {
	Name          string `json:"name" yaml:"name"`
	Mime          string `json:"mime,omitempty" yaml:"mime,omitempty"`
	SizeBytes     int64  `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	Encoding      string `json:"encoding" yaml:"encoding"`
	ContentBase64 string `json:"content_base64" yaml:"content_base64"`
}

// Payload is the body of an outline request.
type Payload struct {
	SchemaVersion string  `json:"schema_version,omitempty" yaml:"schema_version,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Client        *Client `json:"client,omitempty" yaml:"client,omitempty"`

	InputType string `json:"input_type" yaml:"input_type"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`

	Value string `json:"value,omitempty" yaml:"value,omitempty"` // text

	Page   *Page           `json:"page,omitempty" yaml:"page,omitempty"` // page_blocks
	Blocks []doctree.Block `json:"blocks,omitempty" yaml:"blocks,omitempty"`

	File *File `json:"file,omitempty" yaml:"file,omitempty"` // file

	// Build overrides; zero values keep the server defaults.
	DetailLevel string `json:"detail_level,omitempty" yaml:"detail_level,omitempty"`
	MaxLeaves   int    `json:"max_leaves,omitempty" yaml:"max_leaves,omitempty"`
}

// Options applies the payload's overrides to base.
func (p Payload) Options(base pipeline.Options) (pipeline.Options, error) {
	if p.DetailLevel != "" {
		d, err := budget.ParseDetailLevel(p.DetailLevel)
		if err != nil {
			return base, err
		}
		base.Detail = d
	}
	if p.MaxLeaves > 0 {
		base.MaxLeaves = p.MaxLeaves
	}
	return base, nil
}

// Converter builds documents from payloads.
type Converter struct {
	Chunk        chunker.Config
	Parse        parser.Options
	MaxFileBytes int64 // 0 for no limit
}

// Document converts p. Text and file inputs are parsed and split into blocks;
// page blocks are used as given.
func (c Converter) Document(p Payload) (doctree.Document, error) {
	switch p.InputType {
	case InputPageBlocks:
		return pageDocument(p), nil
	case InputText:
		tree, err := (&parser.TextParser{}).Parse(strings.NewReader(p.Value), "")
		if err != nil {
			return doctree.Document{}, fmt.Errorf("parse text: %w", err)
		}
		return c.treeDocument(firstNonEmpty(p.Title, "text"), "", tree), nil
	case InputFile:
		return c.fileDocument(p)
	}
	return doctree.Document{}, fmt.Errorf("%w: %q", ErrUnsupportedInput, p.InputType)
}

func pageDocument(p Payload) doctree.Document {
	var page Page
	if p.Page != nil {
		page = *p.Page
	}
	url := firstNonEmpty(page.URL, defaultPageURL)
	doc := doctree.Document{
		Title:  firstNonEmpty(p.Title, page.Title, url, "page"),
		URL:    url,
		Kind:   doctree.SourcePage,
		Blocks: p.Blocks,
	}
	if IsPaginated(p.Blocks, url) {
		doc.Kind = doctree.SourcePaginated
	}
	return doc
}

func (c Converter) fileDocument(p Payload) (doctree.Document, error) {
	if p.File == nil || p.File.Name == "" {
		return doctree.Document{}, errors.New("file input without a file")
	}
	if p.File.Encoding != "" && p.File.Encoding != "base64" {
		return doctree.Document{}, fmt.Errorf("unsupported file encoding %q", p.File.Encoding)
	}
	data, err := base64.StdEncoding.DecodeString(p.File.ContentBase64)
	if err != nil {
		return doctree.Document{}, fmt.Errorf("decode file: %w", err)
	}
	if c.MaxFileBytes > 0 && int64(len(data)) > c.MaxFileBytes {
		return doctree.Document{}, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(data), c.MaxFileBytes)
	}

	tree, err := c.ParseFile(p.File.Name, data)
	if err != nil {
		return doctree.Document{}, err
	}
	return c.treeDocument(firstNonEmpty(p.Title, tree.Title, p.File.Name), p.File.Name, tree), nil
}

// ParseFile parses raw file bytes by extension.
func (c Converter) ParseFile(name string, data []byte) (*doctree.DocTree, error) {
	p, err := parser.ForFile(name, c.Parse)
	if err != nil {
		return nil, err
	}
	tree, err := p.Parse(bytes.NewReader(data), name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return tree, nil
}

// FileDocument parses and splits a file read from disk.
func (c Converter) FileDocument(name string, data []byte) (doctree.Document, error) {
	tree, err := c.ParseFile(name, data)
	if err != nil {
		return doctree.Document{}, err
	}
	return c.treeDocument(firstNonEmpty(tree.Title, name), name, tree), nil
}

func (c Converter) treeDocument(title, url string, tree *doctree.DocTree) doctree.Document {
	doc := doctree.Document{
		Title:  title,
		URL:    url,
		Kind:   doctree.SourcePage,
		Blocks: chunker.Blocks(tree, c.Chunk),
	}
	if tree.Paginated {
		doc.Kind = doctree.SourcePaginated
	}
	return doc
}

// IsPaginated reports whether page blocks come from a PDF viewer: the first
// block carries a pdf_* tag or a //pdf path, or the URL names a .pdf.
func IsPaginated(blocks []doctree.Block, url string) bool {
	if strings.Contains(strings.ToLower(url), ".pdf") {
		return true
	}
	if len(blocks) == 0 {
		return false
	}
	first := blocks[0]
	switch {
	case first.Tag == "pdf_page", first.Tag == "pdf_list", first.Tag == "pdf_paragraph":
		return true
	case strings.HasPrefix(first.Tag, "pdf_h"):
		return true
	case strings.HasPrefix(first.XPath, "//pdf"):
		return true
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
