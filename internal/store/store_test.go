package store

import (
	"context"
	"testing"

	"locale-tool/internal/textutil"

	"github.com/google/uuid"
)

func TestNewRun(t *testing.T) {
	r := NewRun("src/App.tsx", "apply", "<p>확인</p>")
	if r.ID == uuid.Nil {
		t.Error("run has no ID")
	}
	if r.ContentHash != textutil.Hash("<p>확인</p>") {
		t.Error("content hash mismatch")
	}
	if r.FilePath != "src/App.tsx" || r.Operation != "apply" {
		t.Errorf("unexpected run %+v", r)
	}
	if r.CreatedAt.IsZero() || r.CreatedAt.Location().String() != "UTC" {
		t.Errorf("CreatedAt = %v", r.CreatedAt)
	}
	if NewRun("x.tsx", "search", "").ContentHash != "" {
		t.Error("empty content should leave the hash empty")
	}
	if other := NewRun("src/App.tsx", "apply", "<p>확인</p>"); other.ID == r.ID {
		t.Error("run IDs repeat")
	}
}

func TestDiscard(t *testing.T) {
	if err := Discard.Record(context.Background(), Run{}); err != nil {
		t.Errorf("Discard.Record = %v", err)
	}
}
