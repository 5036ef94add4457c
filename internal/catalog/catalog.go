// Package catalog renders blocks as the line-per-block text the content
// oracle reads. The format is a wire contract: the oracle parses the
// proportion hints back out of it, so spacing quirks are deliberate.
package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/mindgest/internal/doctree"
)

// Options controls catalog rendering.
type Options struct {
	MaxSnippetChars int  // per-block snippet length in characters
	Paginated       bool // use the PDF tag vocabulary
}

const (
	proportionsPrefix = "DOCUMENT STRUCTURE PROPORTIONS: "
	proportionsNote   = "IMPORTANT: The number of leaves and detail level for each section should reflect these proportions."
	maxGroupsListed   = 5
)

// Lengths returns the normalized text length per block id and the total over
// all identified blocks. The first block with a given id wins.
func Lengths(blocks []doctree.Block) (map[int]int, int) {
	lengths := make(map[int]int, len(blocks))
	total := 0
	for _, b := range blocks {
		if b.ID == nil {
			continue
		}
		n := utf8.RuneCountInString(doctree.NormalizeWS(b.Text))
		total += n
		if _, ok := lengths[*b.ID]; !ok {
			lengths[*b.ID] = n
		}
	}
	return lengths, total
}

type groupShare struct {
	id    int
	share float64
}

// Build renders the catalog.
func Build(blocks []doctree.Block, opts Options) string {
	if opts.MaxSnippetChars <= 0 {
		opts.MaxSnippetChars = 240
	}

	blockLen := make(map[int]int)
	groupLen := make(map[int]int)
	var groupOrder []int
	total := 0
	for _, b := range blocks {
		if b.ID == nil {
			continue
		}
		txt := doctree.NormalizeWS(b.Text)
		if txt == "" {
			continue
		}
		n := utf8.RuneCountInString(txt)
		blockLen[*b.ID] = n
		total += n
		g := b.Group()
		if _, ok := groupLen[g]; !ok {
			groupOrder = append(groupOrder, g)
		}
		groupLen[g] += n
	}

	groupProp := make(map[int]float64, len(groupLen))
	var shares []groupShare
	if total > 0 {
		for _, g := range groupOrder {
			p := float64(groupLen[g]) / float64(total) * 100
			groupProp[g] = p
			shares = append(shares, groupShare{id: g, share: p})
		}
	}

	var lines []string
	if len(shares) > 1 {
		sort.SliceStable(shares, func(i, j int) bool { return shares[i].share > shares[j].share })
		if len(shares) > maxGroupsListed {
			shares = shares[:maxGroupsListed]
		}
		parts := make([]string, len(shares))
		for i, s := range shares {
			parts[i] = fmt.Sprintf("Group %d: %.1f%%", s.id, s.share)
		}
		lines = append(lines, proportionsPrefix+strings.Join(parts, " | "), proportionsNote, "")
	}

	var currentGroup *int
	for _, b := range blocks {
		if b.ID == nil {
			continue
		}
		txt := doctree.NormalizeWS(b.Text)
		if txt == "" {
			continue
		}
		id := *b.ID
		snippet := truncateRunes(txt, opts.MaxSnippetChars)
		blockProp := 0.0
		if n := blockLen[id]; n > 0 && total > 0 {
			blockProp = float64(n) / float64(total) * 100
		}

		if opts.Paginated {
			prefix := pdfPrefix(b)
			if blockProp > 1.0 {
				prefix += fmt.Sprintf(" size:%.1f%%", blockProp)
			}
			lines = append(lines, fmt.Sprintf("[b%d] %s%s", id, prefix, snippet))
			continue
		}

		blockType := b.BlockType
		if blockType == "" {
			blockType = doctree.BlockParagraph
		}

		if b.GroupID != nil && (currentGroup == nil || *currentGroup != *b.GroupID) {
			if currentGroup != nil {
				lines = append(lines, "")
			}
			g := *b.GroupID
			currentGroup = &g
			if blockType == doctree.BlockHeader && b.Level != 0 {
				prefix := fmt.Sprintf("[HEADER L%d]", b.Level)
				if b.SectionLevel != 0 {
					prefix += fmt.Sprintf(" section:%d", b.SectionLevel)
				}
				if b.VisualWeight != 0 {
					prefix += fmt.Sprintf(" weight:%.1f", b.VisualWeight)
				}
				lines = append(lines, fmt.Sprintf("[b%d] %s %s", id, prefix, snippet))
				continue
			}
		}

		prefix := pagePrefix(b, blockType)
		if gp := groupProp[b.Group()]; gp > 5.0 {
			prefix += fmt.Sprintf(" group_size:%.1f%%", gp)
		}
		if blockProp > 1.0 {
			prefix += fmt.Sprintf(" size:%.1f%%", blockProp)
		}
		lines = append(lines, fmt.Sprintf("[b%d] %s%s", id, prefix, snippet))
	}

	return strings.Join(lines, "\n")
}

func pdfPrefix(b doctree.Block) string {
	tag := b.Tag
	if tag == "" {
		tag = "pdf_paragraph"
	}

	var prefix string
	switch {
	case strings.HasPrefix(tag, "pdf_h"):
		prefix = "[HEADER L" + strings.ReplaceAll(tag, "pdf_h", "") + "]"
	case tag == "pdf_list":
		prefix = "[LIST]"
	case b.BlockType == doctree.BlockHeader:
		if b.Level > 0 {
			prefix = fmt.Sprintf("[HEADER L%d]", b.Level)
		} else {
			prefix = "[HEADER]"
		}
	case b.BlockType == doctree.BlockList:
		prefix = "[LIST]"
	default:
		prefix = "[PARAGRAPH]"
	}

	var meta []string
	if b.SectionNumber != "" {
		meta = append(meta, "§"+b.SectionNumber)
	}
	if b.Style != "" && b.Style != "normal" {
		meta = append(meta, b.Style)
	}
	if b.FontSize != 0 {
		meta = append(meta, fmt.Sprintf("font:%.1f", b.FontSize))
	}
	if len(meta) > 0 {
		prefix += " " + strings.Join(meta, " ")
	}
	return prefix + " "
}

func pagePrefix(b doctree.Block, blockType string) string {
	var prefix string
	switch {
	case blockType == doctree.BlockHeader && b.Level != 0:
		prefix = fmt.Sprintf("[HEADER L%d]", b.Level)
	case blockType == doctree.BlockList:
		prefix = "[LIST]"
	case blockType == doctree.BlockTable:
		prefix = "[TABLE]"
		if len(b.TableHeaders) > 0 {
			prefix += fmt.Sprintf(" cols:%d", len(b.TableHeaders))
		}
	case blockType == doctree.BlockCode:
		prefix = "[CODE]"
	case blockType == doctree.BlockDefinition:
		prefix = "[DEFINITION]"
	default:
		prefix = "[PARAGRAPH]"
	}

	var meta []string
	switch b.ParentTag {
	case "", "body", "html", "div":
	default:
		meta = append(meta, "parent:"+b.ParentTag)
	}
	if b.SectionLevel != 0 {
		meta = append(meta, fmt.Sprintf("section:%d", b.SectionLevel))
	}
	if b.VisualWeight > 16 {
		meta = append(meta, fmt.Sprintf("weight:%.1f", b.VisualWeight))
	}
	if len(meta) > 0 {
		prefix += " " + strings.Join(meta, " ")
	}
	return prefix + " "
}

var blockRefRe = regexp.MustCompile(`\[b(\d+)\]`)

// Filter returns the catalog lines for ids, in ids order, joined by newlines.
// Lines are matched by their first [b<id>] token; ids without a line are
// skipped.
func Filter(lines []string, ids []int) string {
	byID := make(map[int]string, len(lines))
	for _, line := range lines {
		m := blockRefRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		byID[id] = line
	}

	var out []string
	for _, id := range ids {
		if line, ok := byID[id]; ok {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
