package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hangul syllable block bounds (가 .. 힣).
const (
	HangulFirst = '가'
	HangulLast  = '힣'
)

// IsHangulSyllable reports whether r is a precomposed Hangul syllable.
func IsHangulSyllable(r rune) bool {
	return r >= HangulFirst && r <= HangulLast
}

// ContainsKorean checks if a string contains at least one Hangul syllable.
func ContainsKorean(s string) bool {
	for _, r := range s {
		if IsHangulSyllable(r) {
			return true
		}
	}
	return false
}

// Hash computes a SHA-256 hex hash of a string for deduplication.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Truncate shortens a string to maxLen runes, appending "..." if truncated.
// Counting runes keeps multi-byte Hangul intact in log fields.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// LineAt returns the 1-based line number of byte offset in s.
func LineAt(s string, offset int) int {
	if offset > len(s) {
		offset = len(s)
	}
	return strings.Count(s[:offset], "\n") + 1
}
