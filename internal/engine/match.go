package engine

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// wordClass mirrors a Unicode-aware \w.
const wordClass = `[\p{L}\p{N}_]`

var (
	selfClosingPattern = regexp.MustCompile(`<(` + wordClass + `+)([^>]*?)/>`)
	attributePattern   = regexp.MustCompile(`(` + wordClass + `+)=["']([^"']*[가-힣]+[^"']*)["']`)
)

// elementMatch is a raw <tag attrs>inner</tag> hit.
type elementMatch struct {
	start, end int
	tag        string
	attrs      string
	inner      string
}

// selfClosingMatch is a raw <tag attrs/> hit.
type selfClosingMatch struct {
	start, end int
	tag        string
	attrs      string
}

// attributeMatch is a raw name="value" hit whose value holds Hangul.
type attributeMatch struct {
	start, end int
	name       string
	value      string
}

// findSimpleElements returns every non-overlapping element whose inner text
// holds no '<' and whose closing tag repeats the opening name. RE2 has no
// backreferences, so the closing-name check is done by hand: at each '<' the
// longest tag name is tried first and shortened rune by rune, as a
// backtracking `<(\w+)([^>]*?)>([^<]*)</\1>` would.
func findSimpleElements(doc string) []elementMatch {
	var matches []elementMatch
	pos := 0
	for pos < len(doc) {
		i := strings.IndexByte(doc[pos:], '<')
		if i < 0 {
			break
		}
		start := pos + i
		if m, ok := matchSimpleElementAt(doc, start); ok {
			matches = append(matches, m)
			pos = m.end
			continue
		}
		pos = start + 1
	}
	return matches
}

func matchSimpleElementAt(doc string, start int) (elementMatch, bool) {
	nameStart := start + 1
	nameEnd := scanWord(doc, nameStart)
	if nameEnd == nameStart {
		return elementMatch{}, false
	}

	// The name holds no '>', so the first '>' after '<' closes the open tag.
	gt := strings.IndexByte(doc[nameEnd:], '>')
	if gt < 0 {
		return elementMatch{}, false
	}
	gt += nameEnd

	// Inner text runs to the first '<', which must open the closing tag.
	lt := strings.IndexByte(doc[gt+1:], '<')
	if lt < 0 {
		return elementMatch{}, false
	}
	lt += gt + 1

	for end := nameEnd; end > nameStart; {
		tag := doc[nameStart:end]
		closing := "</" + tag + ">"
		if strings.HasPrefix(doc[lt:], closing) {
			return elementMatch{
				start: start,
				end:   lt + len(closing),
				tag:   tag,
				attrs: doc[end:gt],
				inner: doc[gt+1 : lt],
			}, true
		}
		_, size := utf8.DecodeLastRuneInString(tag)
		end -= size
	}
	return elementMatch{}, false
}

// scanWord returns the end offset of the word run starting at i.
func scanWord(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			break
		}
		i += size
	}
	return i
}

func findSelfClosingElements(doc string) []selfClosingMatch {
	locs := selfClosingPattern.FindAllStringSubmatchIndex(doc, -1)
	matches := make([]selfClosingMatch, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, selfClosingMatch{
			start: loc[0],
			end:   loc[1],
			tag:   doc[loc[2]:loc[3]],
			attrs: doc[loc[4]:loc[5]],
		})
	}
	return matches
}

func findAttributes(doc string) []attributeMatch {
	locs := attributePattern.FindAllStringSubmatchIndex(doc, -1)
	matches := make([]attributeMatch, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, attributeMatch{
			start: loc[0],
			end:   loc[1],
			name:  doc[loc[2]:loc[3]],
			value: doc[loc[4]:loc[5]],
		})
	}
	return matches
}
