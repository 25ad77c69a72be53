package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"locale-tool/internal/korean"
	"locale-tool/internal/template"
	"locale-tool/internal/textutil"

	"github.com/rs/zerolog/log"
)

// detect is swapped in tests to force a fault mid-rewrite.
var detect = korean.Detect

// ErrInternal wraps any fault raised while matching or replacing.
var ErrInternal = errors.New("failed to apply template")

// stage names the step a rewrite failed in.
type stage string

const (
	stageScanning  stage = "scanning"
	stageReplacing stage = "replacing"
)

// Result is the outcome of a successful Apply.
type Result struct {
	Document     string
	Replacements int
}

// Apply wraps the untemplated Korean text of doc in localization calls.
//
// Simple elements are handled first: each phrase in their inner text becomes
// {bt("W#", "<phrase>")}. Quoted attributes are then re-found in the updated
// document and become name={bt("W#", "<value>")}, except inside self-closing
// elements, which are reported by Scan but never rewritten. The count goes up
// once per rewritten element or attribute.
//
// Apply never returns a partial document. Invalid kinds fail with
// template.ErrInvalidTemplateKind or template.ErrTemplateDisabled before any
// work; anything else that goes wrong is reported as ErrInternal.
func Apply(doc, kind string) (res Result, err error) {
	if _, err := template.ParseKind(kind); err != nil {
		return Result{}, err
	}

	current := stageScanning
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrInternal, current, r)
			res = Result{}
			log.Error().Err(err).Str("stage", string(current)).Msg("Rewrite aborted")
		}
	}()

	elements := findSimpleElements(doc)

	current = stageReplacing
	var edits []edit
	for i := len(elements) - 1; i >= 0; i-- {
		m := elements[i]
		if template.IsTemplated(doc[m.start:m.end]) {
			continue
		}
		phrases := detect(m.inner)
		if len(phrases) == 0 {
			continue
		}
		log.Debug().
			Str("tag", m.tag).
			Str("text", textutil.Truncate(strings.TrimSpace(m.inner), 30)).
			Msg("Wrapping element")
		res.Replacements++
		inner := wrapPhrases(m.inner, phrases)
		edits = append(edits, edit{
			start: m.start,
			end:   m.end,
			text:  "<" + m.tag + m.attrs + ">" + inner + "</" + m.tag + ">",
		})
	}
	doc = applyEdits(doc, edits)

	current = stageScanning
	attrs := findAttributes(doc)
	var selfClosing [][2]int
	for _, m := range findSelfClosingElements(doc) {
		selfClosing = append(selfClosing, [2]int{m.start, m.end})
	}

	current = stageReplacing
	edits = edits[:0]
	for i := len(attrs) - 1; i >= 0; i-- {
		m := attrs[i]
		if template.IsTemplated(doc[m.start:m.end]) {
			continue
		}
		if overlaps(m.start, m.end, selfClosing) {
			continue
		}
		res.Replacements++
		edits = append(edits, edit{
			start: m.start,
			end:   m.end,
			text:  template.WrapAttribute(m.name, m.value),
		})
	}
	doc = applyEdits(doc, edits)

	res.Document = doc
	log.Debug().Int("replacements", res.Replacements).Msg("Rewrite complete")
	return res, nil
}

// wrapPhrases replaces every occurrence of each phrase in text with its bt
// call. All phrases are matched in one left-to-right sweep, longest first
// at any position, so a call is never inserted inside another.
func wrapPhrases(text string, phrases []string) string {
	ordered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p == "" || template.IsTemplated(p) {
			continue
		}
		ordered = append(ordered, p)
	}
	if len(ordered) == 0 {
		return text
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return utf8.RuneCountInString(ordered[i]) > utf8.RuneCountInString(ordered[j])
	})

	pairs := make([]string, 0, 2*len(ordered))
	for _, p := range ordered {
		pairs = append(pairs, p, template.Wrap(p))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
