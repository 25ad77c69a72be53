// Package template knows the localization wrappers written into TSX files.
package template

import (
	"errors"
	"fmt"
	"regexp"
)

// Kind names a localization wrapper.
type Kind string

const (
	// BT is the enabled wrapper, {bt("W#", "<text>")}.
	BT Kind = "bt"
	// BVT is recognized in existing files but never produced.
	BVT Kind = "bvt"
)

// Placeholder is the key written into every generated call. Real keys are
// assigned later by the translation team.
const Placeholder = "W#"

var (
	// ErrInvalidTemplateKind is returned for kinds other than bt and bvt.
	ErrInvalidTemplateKind = errors.New(`invalid template type. Must be "bt" or "bvt"`)
	// ErrTemplateDisabled is returned for bvt, which is switched off on purpose.
	ErrTemplateDisabled = errors.New("BVT Template is temporarily disabled. Only BT Template is available.")
)

// ParseKind validates a requested kind. Only BT is usable.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case BT:
		return BT, nil
	case BVT:
		return "", ErrTemplateDisabled
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidTemplateKind, s)
	}
}

// Token is one localization call.
type Token struct {
	Kind Kind
	Key  string
	Text string
}

// NewToken returns a bt token with the placeholder key.
func NewToken(text string) Token {
	return Token{Kind: BT, Key: Placeholder, Text: text}
}

// Call renders the bare call, bt("W#", "<text>").
func (t Token) Call() string {
	return fmt.Sprintf(`%s("%s", "%s")`, t.Kind, t.Key, t.Text)
}

// String renders the call as a JSX expression, {bt("W#", "<text>")}.
func (t Token) String() string {
	return "{" + t.Call() + "}"
}

// Wrap is shorthand for NewToken(text).String().
func Wrap(text string) string {
	return NewToken(text).String()
}

// WrapAttribute renders name={bt("W#", "<value>")}.
func WrapAttribute(name, value string) string {
	return name + "=" + Wrap(value)
}

var (
	// btPattern accepts numbered keys and the unresolved placeholder.
	btPattern  = regexp.MustCompile(`\{bt\("W(?:\d+|#)",\s*"[^"]+"\)\}`)
	bvtPattern = regexp.MustCompile(`\{bvt\(([^)]+)\)\}`)
)

// IsTemplated reports whether text already holds a bt or bvt call.
func IsTemplated(text string) bool {
	return btPattern.MatchString(text) || bvtPattern.MatchString(text)
}
