package outline

import "sort"

// ApplyExpansions rewrites bullets positionally: the Nth bullet of text
// becomes "- " followed by the Nth expansion in ascending original-line
// order. Bullets beyond the number of expansions are left as they are.
//
// text is expected to be the pruned outline, so its bullets are exactly the
// expanded leaves in document order.
func ApplyExpansions(text string, expansions map[int]string) string {
	lines := make([]int, 0, len(expansions))
	for line := range expansions {
		lines = append(lines, line)
	}
	sort.Ints(lines)

	t := Parse(text)
	next := 0
	for i, l := range t.Lines {
		if l.Kind != Bullet || next >= len(lines) {
			continue
		}
		t.Lines[i].Raw = "- " + expansions[lines[next]]
		next++
	}
	return t.String()
}
