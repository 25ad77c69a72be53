package engine

// Kind identifies which scan pass produced a span.
type Kind string

const (
	KindElement     Kind = "element"
	KindSelfClosing Kind = "self_closing"
	KindAttribute   Kind = "attribute"
)

// AttributeTag is the TagName reported for attribute spans.
const AttributeTag = "attribute"

// MatchSpan is one located occurrence of Korean text in a document.
//
// Start and End are byte offsets into the scanned document and
// RawMatch == document[Start:End]. They are only valid for that exact
// document; any rewrite before Start invalidates them. InnerText is the
// untrimmed text between the tags and is set for element spans only.
type MatchSpan struct {
	Kind           Kind     `json:"kind"`
	TagName        string   `json:"tag"`
	AttributesText string   `json:"attributes"`
	InnerText      string   `json:"inner_text"`
	AttributeName  string   `json:"attribute_name,omitempty"`
	AttributeValue string   `json:"attribute_value,omitempty"`
	KoreanPhrases  []string `json:"korean_texts"`
	Start          int      `json:"start"`
	End            int      `json:"end"`
	RawMatch       string   `json:"full_match"`
}
