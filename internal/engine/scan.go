package engine

import (
	"strings"

	"locale-tool/internal/korean"
	"locale-tool/internal/template"
)

// FindElements locates every element, self-closing element and quoted
// attribute holding Korean text. Results are grouped by pass in that order,
// each group in document order. Spans may overlap across groups: an
// attribute inside a simple element is reported twice.
func FindElements(doc string) []MatchSpan {
	var spans []MatchSpan

	for _, m := range findSimpleElements(doc) {
		phrases := korean.Detect(strings.TrimSpace(m.inner))
		if len(phrases) == 0 {
			continue
		}
		spans = append(spans, MatchSpan{
			Kind:           KindElement,
			TagName:        m.tag,
			AttributesText: m.attrs,
			InnerText:      m.inner,
			KoreanPhrases:  phrases,
			Start:          m.start,
			End:            m.end,
			RawMatch:       doc[m.start:m.end],
		})
	}

	for _, m := range findSelfClosingElements(doc) {
		phrases := korean.Detect(m.attrs)
		if len(phrases) == 0 {
			continue
		}
		spans = append(spans, MatchSpan{
			Kind:           KindSelfClosing,
			TagName:        m.tag,
			AttributesText: m.attrs,
			KoreanPhrases:  phrases,
			Start:          m.start,
			End:            m.end,
			RawMatch:       doc[m.start:m.end],
		})
	}

	for _, m := range findAttributes(doc) {
		phrases := korean.Detect(m.value)
		if len(phrases) == 0 {
			continue
		}
		spans = append(spans, MatchSpan{
			Kind:           KindAttribute,
			TagName:        AttributeTag,
			AttributesText: m.name + `="` + m.value + `"`,
			AttributeName:  m.name,
			AttributeValue: m.value,
			KoreanPhrases:  phrases,
			Start:          m.start,
			End:            m.end,
			RawMatch:       doc[m.start:m.end],
		})
	}

	return spans
}

// Untemplated drops spans whose raw text already carries a bt or bvt call.
func Untemplated(spans []MatchSpan) []MatchSpan {
	out := make([]MatchSpan, 0, len(spans))
	for _, s := range spans {
		if template.IsTemplated(s.RawMatch) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Scan returns the spans of doc that still need a localization call.
func Scan(doc string) []MatchSpan {
	return Untemplated(FindElements(doc))
}
