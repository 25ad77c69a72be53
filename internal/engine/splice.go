package engine

import (
	"sort"
	"strings"
)

// edit replaces doc[start:end] with text.
type edit struct {
	start, end int
	text       string
}

// applyEdits splices non-overlapping edits into doc. Edits are applied
// right to left so every offset still refers to the original document.
// Overlapping edits after the first are dropped.
func applyEdits(doc string, edits []edit) string {
	if len(edits) == 0 {
		return doc
	}

	sorted := make([]edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].start < sorted[j].start
	})

	filtered := sorted[:0]
	lastEnd := -1
	for _, e := range sorted {
		if e.start >= lastEnd {
			filtered = append(filtered, e)
			lastEnd = e.end
		}
	}

	var b strings.Builder
	b.Grow(len(doc))
	tail := len(doc)
	parts := make([]string, 0, 2*len(filtered)+1)
	for i := len(filtered) - 1; i >= 0; i-- {
		e := filtered[i]
		parts = append(parts, doc[e.end:tail], e.text)
		tail = e.start
	}
	parts = append(parts, doc[:tail])
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(parts[i])
	}
	return b.String()
}

// overlaps reports whether [start, end) intersects any of the given ranges.
func overlaps(start, end int, ranges [][2]int) bool {
	for _, r := range ranges {
		if start < r[1] && r[0] < end {
			return true
		}
	}
	return false
}
