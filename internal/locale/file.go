package locale

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// Operation selects what ProcessFile does with a file.
type Operation string

const (
	OpSearch Operation = "search"
	OpApply  Operation = "apply"
)

// BackupSuffix is appended to a file's path for the pre-rewrite copy.
const BackupSuffix = ".backup"

var (
	ErrFileNotFound     = errors.New("file not found")
	ErrInvalidOperation = errors.New(`invalid operation. Must be "search" or "apply"`)
	ErrFileType         = errors.New("file type not allowed. Only TSX files are supported")
	ErrNotUTF8          = errors.New("file must be UTF-8 encoded")
)

// AllowedExtensions lists the markup files the tool accepts.
var AllowedExtensions = map[string]bool{
	".tsx": true,
	".jsx": true,
}

// AllowedFile reports whether name has an accepted extension.
func AllowedFile(name string) bool {
	return AllowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// DecodeUpload validates an uploaded file and returns its text.
func DecodeUpload(name string, data []byte) (string, error) {
	if !AllowedFile(name) {
		return "", ErrFileType
	}
	if !utf8.Valid(data) {
		return "", ErrNotUTF8
	}
	return string(data), nil
}

// FileResult holds the outcome of ProcessFile; exactly one of Search and
// Apply is set.
type FileResult struct {
	Operation Operation
	Search    *SearchResult
	Apply     *RewriteResult
}

// ProcessFile searches or rewrites the file at path. A successful apply
// first copies the original to path+BackupSuffix, then overwrites path.
func (s *Service) ProcessFile(path string, op Operation, kind string) (*FileResult, error) {
	if op != OpSearch && op != OpApply {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidOperation, op)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrNotUTF8, path)
	}
	content := string(data)

	if op == OpSearch {
		res := s.Search(content)
		res.Filename = filepath.Base(path)
		return &FileResult{Operation: op, Search: &res}, nil
	}

	res := s.Apply(content, kind)
	res.Filename = filepath.Base(path)
	if !res.Success {
		return &FileResult{Operation: op, Apply: &res}, nil
	}

	backup, err := WriteWithBackup(path, content, res.UpdatedContent)
	if err != nil {
		return nil, err
	}
	res.BackupCreated = backup

	log.Info().
		Str("file", path).
		Str("backup", backup).
		Int("replacements", res.ReplacementsCount).
		Msg("File rewritten")

	return &FileResult{Operation: op, Apply: &res}, nil
}

// WriteWithBackup saves original to path+BackupSuffix and then writes
// updated to path, keeping the file's mode. It returns the backup path.
func WriteWithBackup(path, original, updated string) (string, error) {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	backup := path + BackupSuffix
	if err := os.WriteFile(backup, []byte(original), mode); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.WriteFile(path, []byte(updated), mode); err != nil {
		return "", fmt.Errorf("write updated file: %w", err)
	}
	return backup, nil
}
