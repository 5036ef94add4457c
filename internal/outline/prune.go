package outline

// PruneUnselected drops every bullet whose line index is not in keep.
// Headings, blank lines and free text are kept.
func PruneUnselected(text string, keep map[int]bool) string {
	t := Parse(text)
	out := t.Lines[:0:0]
	for i, l := range t.Lines {
		if l.Kind == Bullet && !keep[i] {
			continue
		}
		out = append(out, l)
	}
	return (&Tree{Lines: out}).String()
}

// PruneEmptySubsections removes headings of depth 3 and deeper that hold no
// bullet.
func PruneEmptySubsections(text string) string {
	return PruneEmptySections(text, 3)
}

// PruneEmptySections removes every heading of depth >= minDepth whose span
// holds no bullet, together with the span. A span runs until the next heading
// of equal or shallower depth. Headings nested inside a kept span are checked
// as well, so the result is a fixed point.
func PruneEmptySections(text string, minDepth int) string {
	if minDepth < 1 {
		minDepth = 1
	}
	lines := Parse(text).Lines
	out := lines[:0:0]
	for i := 0; i < len(lines); {
		l := lines[i]
		if l.Kind != Heading || l.Depth < minDepth {
			out = append(out, l)
			i++
			continue
		}
		end := spanEnd(lines, i)
		if hasBullet(lines[i+1 : end]) {
			out = append(out, l)
			i++
			continue
		}
		i = end
	}
	return (&Tree{Lines: out}).String()
}

// spanEnd returns the index of the first heading after start whose depth is
// not greater than the heading at start, or len(lines).
func spanEnd(lines []Line, start int) int {
	depth := lines[start].Depth
	for j := start + 1; j < len(lines); j++ {
		if lines[j].Kind == Heading && lines[j].Depth <= depth {
			return j
		}
	}
	return len(lines)
}

func hasBullet(lines []Line) bool {
	for _, l := range lines {
		if l.Kind == Bullet {
			return true
		}
	}
	return false
}
