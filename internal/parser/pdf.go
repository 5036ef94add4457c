package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/mindgest/internal/doctree"
)

// PDFParser handles PDF files. It tries the Go library first, then falls
// back to pdftotext if enabled. The tree is paginated: content nodes carry
// their page number and no structural path.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// ledongthuc/pdf opens by path, so we write to a temp file.
	tmp, err := os.CreateTemp("", "mindgest-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if err != nil && p.FallbackPdftotext {
		var text string
		text, err = extractPdftotext(tmpPath)
		pages = strings.Split(text, "\f")
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	return pagesTree(strings.TrimSuffix(filename, ".pdf"), pages), nil
}

// pagesTree turns page texts into paragraph nodes numbered from page 1.
func pagesTree(title string, pages []string) *doctree.DocTree {
	tree := &doctree.DocTree{Title: title, Paginated: true}
	for i, page := range pages {
		for _, para := range splitParagraphs(page) {
			tree.Children = append(tree.Children, &doctree.DocNode{
				Kind: doctree.BlockParagraph,
				Text: para,
				Page: i + 1,
			})
		}
	}
	return tree
}

// splitParagraphs splits on blank lines and joins wrapped lines.
func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p = doctree.NormalizeWS(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i-1] = text
	}
	return pages, nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
