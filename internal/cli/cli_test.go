package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"locale-tool/internal/config"
	"locale-tool/internal/filewalker"
	"locale-tool/internal/template"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	want := []string{"apply", "history", "index", "inventory", "scan", "serve"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestProcessFilesSkipsFailures(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.tsx":       "<p>안녕</p>",
		"b.tsx":       "<p>hello</p>",
		"bad.tsx":     string([]byte{0xff, 0xfe}),
		"ignored.txt": "<p>무시</p>",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.Config{WorkerCount: 2}
	reports, err := processFiles(context.Background(), cfg, dir, func(ctx context.Context, entry filewalker.FileEntry) (fileReport, error) {
		content, err := readDocument(entry.Path)
		if err != nil {
			return fileReport{}, err
		}
		res := newService(cfg).Search(content)
		return fileReport{Path: entry.Path, Search: &res}, nil
	})
	if err != nil {
		t.Fatalf("processFiles: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}

	counts := map[string]int{}
	for _, r := range reports {
		counts[filepath.Base(r.Path)] = r.Search.Count
	}
	if counts["a.tsx"] != 1 || counts["b.tsx"] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestReadDocumentRejectsInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tsx")
	if err := os.WriteFile(path, []byte{0xc3, 0x28}, 0644); err != nil {
		t.Fatal(err)
	}
	_, err := readDocument(path)
	if err == nil || !strings.Contains(err.Error(), "bad.tsx") {
		t.Fatalf("readDocument error = %v", err)
	}
}

func TestApplyRejectsKindBeforeWalking(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.tsx")
	const content = "<p>안녕</p>"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		kind string
		want error
	}{
		{"bvt", template.ErrTemplateDisabled},
		{"xyz", template.ErrInvalidTemplateKind},
	}
	for _, tt := range tests {
		err := runApply(dir, tt.kind, false, false)
		if !errors.Is(err, tt.want) {
			t.Errorf("runApply(%q) error = %v, want %v", tt.kind, err, tt.want)
		}
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Errorf("file rewritten to %q", got)
	}
	if _, err := os.Stat(path + ".backup"); !os.IsNotExist(err) {
		t.Errorf("backup created: %v", err)
	}
}
