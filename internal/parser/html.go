package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/mindgest/internal/doctree"
)

// HTMLParser handles HTML files. Every heading and content node carries the
// structural path of its source element.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".html"), ".htm"),
	}
	if title := findTitle(doc); title != "" {
		tree.Title = title
	}

	s := newSections()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				s.heading(level, textContent(n), xpath(n))
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header", "noscript", "template":
				return
			case "p", "blockquote", "dd", "figcaption":
				s.content(&doctree.DocNode{Kind: doctree.BlockParagraph, Text: textContent(n), Path: xpath(n)})
				return
			case "ul", "ol":
				s.content(&doctree.DocNode{Kind: doctree.BlockList, Text: listItems(n), Path: xpath(n)})
				return
			case "pre":
				s.content(&doctree.DocNode{Kind: doctree.BlockCode, Text: rawText(n), Path: xpath(n)})
				return
			case "table":
				headers, body := tableRows(n)
				s.content(&doctree.DocNode{Kind: doctree.BlockTable, Text: body, Headers: headers, Path: xpath(n)})
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	tree.Children = s.nodes()
	return tree, nil
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// xpath returns the absolute element path of n, e.g. /html/body/div[2]/p[1].
// Positions count same-tag element siblings, starting at 1.
func xpath(n *html.Node) string {
	var parts []string
	for ; n != nil && n.Type == html.ElementNode; n = n.Parent {
		pos := 1
		for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if sib.Type == html.ElementNode && sib.Data == n.Data {
				pos++
			}
		}
		parts = append(parts, fmt.Sprintf("%s[%d]", n.Data, pos))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

// textContent returns the text under n with whitespace collapsed.
func textContent(n *html.Node) string {
	return doctree.NormalizeWS(rawText(n))
}

func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func listItems(list *html.Node) string {
	var items []string
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			if t := textContent(c); t != "" {
				items = append(items, "- "+t)
			}
		}
	}
	return strings.Join(items, "\n")
}

// tableRows returns the th cells of the first header row and one "a | b"
// line per data row.
func tableRows(table *html.Node) ([]string, string) {
	var headers []string
	var rows []string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			allTH := true
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
					continue
				}
				if c.Data != "th" {
					allTH = false
				}
				cells = append(cells, textContent(c))
			}
			if len(cells) == 0 {
				return
			}
			if allTH && headers == nil {
				headers = cells
				return
			}
			rows = append(rows, strings.Join(cells, " | "))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(table)
	return headers, strings.Join(rows, "\n")
}

func findTitle(n *html.Node) string {
	if t := findElement(n, "title"); t != nil {
		return textContent(t)
	}
	return ""
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findElement(c, tag); f != nil {
			return f
		}
	}
	return nil
}
