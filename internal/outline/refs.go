package outline

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	refRe        = regexp.MustCompile(`\[b(\d+)\]`)
	refSpaceRe   = regexp.MustCompile(`\[b\d+\]\s*`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

const trailingPunct = ",;:-–— "

// OneLine joins the lines of s with single spaces and trims the result.
func OneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(strings.Join(strings.Split(strings.TrimSpace(s), "\n"), " "))
}

// StripRefs removes every [b<id>] reference and the whitespace after it.
func StripRefs(s string) string {
	return strings.TrimSpace(refSpaceRe.ReplaceAllString(s, ""))
}

// RefIDs returns the ids of the [b<id>] references in s, in order.
func RefIDs(s string) []int {
	var ids []int
	for _, m := range refRe.FindAllStringSubmatch(s, -1) {
		if id, err := strconv.Atoi(m[1]); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// EnsureBlockRefs moves references to the end of s, keeping only ids in
// chosen. When none survive, the first two chosen ids are cited instead.
// The prose before the references is capped at maxProse characters when
// maxProse > 0.
func EnsureBlockRefs(s string, chosen []int, maxProse int) string {
	allowed := make(map[int]bool, len(chosen))
	for _, id := range chosen {
		allowed[id] = true
	}
	seen := make(map[int]bool)
	var keep []int
	for _, id := range RefIDs(s) {
		if allowed[id] && !seen[id] {
			seen[id] = true
			keep = append(keep, id)
		}
	}
	if len(keep) == 0 {
		keep = chosen
		if len(keep) > 2 {
			keep = keep[:2]
		}
	}

	prose := strings.TrimSpace(refRe.ReplaceAllString(s, ""))
	prose = multiSpaceRe.ReplaceAllString(prose, " ")
	if maxProse > 0 {
		prose = CapProse(prose, maxProse)
	}

	var refs strings.Builder
	for _, id := range keep {
		fmt.Fprintf(&refs, "[b%d]", id)
	}
	return strings.TrimSpace(prose + " " + refs.String())
}

// CapProse shortens s to at most limit characters, cutting at the last word
// boundary and marking the cut with an ellipsis.
func CapProse(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	cut := string(r[:limit-1])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, trailingPunct) + "…"
}

// Linkify turns [b<id>] references into mm://page links addressing the
// block's structural path on pageURL. References to blocks without a known
// path stay bare.
func Linkify(s, pageURL string, xpaths map[int]string) string {
	return refRe.ReplaceAllStringFunc(s, func(m string) string {
		id, err := strconv.Atoi(refRe.FindStringSubmatch(m)[1])
		if err != nil {
			return m
		}
		xp := xpaths[id]
		if xp == "" {
			return fmt.Sprintf("[b%d]", id)
		}
		return fmt.Sprintf("[b%d](mm://page?url=%s&xpath=%s&block=%d)", id, escape(pageURL), escape(xp), id)
	})
}

// escape percent-encodes everything outside the RFC 3986 unreserved set.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
