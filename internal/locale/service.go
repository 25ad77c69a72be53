// Package locale is the entry point used by the CLI and the HTTP API to
// search documents for untemplated Korean text and to apply templates.
package locale

import (
	"errors"
	"fmt"
	"time"

	"locale-tool/internal/engine"
	"locale-tool/internal/korean"

	"github.com/rs/zerolog/log"
)

// ErrDocumentTooLarge is returned for documents above the configured limit.
var ErrDocumentTooLarge = errors.New("document exceeds size limit")

// debugSegmentLimit caps the sample of segments echoed in DebugInfo.
const debugSegmentLimit = 5

// SearchResult is the response of a search for untemplated elements.
type SearchResult struct {
	Success      bool               `json:"success"`
	Count        int                `json:"count"`
	Elements     []engine.MatchSpan `json:"elements"`
	Duration     float64            `json:"duration"`
	Message      string             `json:"message,omitempty"`
	Error        string             `json:"error,omitempty"`
	Filename     string             `json:"filename,omitempty"`
	TemplateType string             `json:"template_type,omitempty"`
	DebugInfo    *DebugInfo         `json:"debug_info,omitempty"`

	Err error `json:"-"`
}

// RewriteResult is the response of a template application.
type RewriteResult struct {
	Success           bool    `json:"success"`
	UpdatedContent    string  `json:"updated_content,omitempty"`
	ReplacementsCount int     `json:"replacements_count"`
	Duration          float64 `json:"duration"`
	Message           string  `json:"message,omitempty"`
	Error             string  `json:"error,omitempty"`
	Filename          string  `json:"filename,omitempty"`
	TemplateType      string  `json:"template_type,omitempty"`
	BackupCreated     string  `json:"backup_created,omitempty"`

	// Err keeps the typed cause for callers that map it to a status code.
	Err error `json:"-"`
}

// DebugInfo summarizes the raw Korean content of a document.
type DebugInfo struct {
	FileSize            int      `json:"file_size"`
	KoreanSegmentsFound int      `json:"korean_segments_found"`
	KoreanSegments      []string `json:"korean_segments"`
}

// Service runs searches and rewrites. It holds no per-document state and is
// safe for concurrent use.
type Service struct {
	maxBytes int
}

// NewService creates a service rejecting documents above maxBytes.
// A non-positive limit disables the check.
func NewService(maxBytes int) *Service {
	return &Service{maxBytes: maxBytes}
}

// Search reports the elements of content that still need a template.
func (s *Service) Search(content string) SearchResult {
	start := time.Now()

	if err := s.checkSize(content); err != nil {
		return SearchResult{Success: false, Error: err.Error(), Err: err}
	}

	elements := engine.Scan(content)
	duration := time.Since(start)

	log.Debug().
		Int("bytes", len(content)).
		Int("untemplated", len(elements)).
		Dur("duration", duration).
		Msg("Search complete")

	return SearchResult{
		Success:  true,
		Count:    len(elements),
		Elements: elements,
		Duration: duration.Seconds(),
		Message:  fmt.Sprintf("Found %d untemplated Korean elements", len(elements)),
	}
}

// Apply wraps the untemplated Korean text of content with the given kind.
// Failures are reported in the result, never as a partial document.
func (s *Service) Apply(content, kind string) RewriteResult {
	start := time.Now()

	if err := s.checkSize(content); err != nil {
		return failed(err)
	}

	res, err := engine.Apply(content, kind)
	if err != nil {
		log.Warn().Err(err).Str("template_type", kind).Msg("Template not applied")
		return failed(err)
	}
	duration := time.Since(start)

	log.Debug().
		Int("replacements", res.Replacements).
		Dur("duration", duration).
		Msg("Template applied")

	return RewriteResult{
		Success:           true,
		UpdatedContent:    res.Document,
		ReplacementsCount: res.Replacements,
		Duration:          duration.Seconds(),
		Message:           fmt.Sprintf("Template applied successfully! %d replacements in %.2fs", res.Replacements, duration.Seconds()),
		TemplateType:      kind,
	}
}

// Debug collects raw segment statistics for content.
func (s *Service) Debug(content string) *DebugInfo {
	segments := korean.Segments(content)
	sample := segments
	if len(sample) > debugSegmentLimit {
		sample = sample[:debugSegmentLimit]
	}
	if sample == nil {
		sample = []string{}
	}
	return &DebugInfo{
		FileSize:            len([]rune(content)),
		KoreanSegmentsFound: len(segments),
		KoreanSegments:      sample,
	}
}

func (s *Service) checkSize(content string) error {
	if s.maxBytes > 0 && len(content) > s.maxBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrDocumentTooLarge, len(content), s.maxBytes)
	}
	return nil
}

func failed(err error) RewriteResult {
	return RewriteResult{Success: false, Error: err.Error(), Err: err}
}
