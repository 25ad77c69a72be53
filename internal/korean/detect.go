// Package korean finds the Korean phrases inside a piece of markup text.
package korean

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"locale-tool/internal/textutil"
)

// segmentPattern matches a maximal run of Hangul syllables.
var segmentPattern = regexp.MustCompile(`[가-힣]+`)

// Segments returns every maximal run of Hangul syllables in text, in order
// of appearance.
func Segments(text string) []string {
	return segmentPattern.FindAllString(text, -1)
}

// Detect returns the Korean phrases of text.
//
// A single segment is returned as is. With several segments, the longest
// space-joined run of consecutive segments that also occurs verbatim in text
// wins and is returned alone, so "검색 테스트" stays one phrase. When no join
// is found in text the segments are returned unmerged.
//
// The merge search tries every (i, j) pair of segments, so a call costs
// O(n²) substring searches for n segments.
func Detect(text string) []string {
	if !textutil.ContainsKorean(text) {
		return nil
	}
	segments := Segments(text)
	if len(segments) <= 1 {
		return segments
	}

	best := ""
	bestLen := 0
	for i := range segments {
		for j := i; j < len(segments); j++ {
			joined := strings.Join(segments[i:j+1], " ")
			n := utf8.RuneCountInString(joined)
			if n <= bestLen {
				continue
			}
			if strings.Contains(text, joined) {
				best = joined
				bestLen = n
			}
		}
	}

	if best != "" {
		return []string{best}
	}
	return segments
}
