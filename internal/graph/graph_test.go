package graph

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"locale-tool/internal/engine"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func TestCountPhrases(t *testing.T) {
	spans := engine.Scan(`<p>확인</p><b>취소</b><i>확인</i><button title="확인">x</button>`)
	got := CountPhrases(spans)
	want := []PhraseCount{{Text: "확인", Count: 3}, {Text: "취소", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CountPhrases = %+v, want %+v", got, want)
	}
}

func TestCountPhrasesTiesAlphabetical(t *testing.T) {
	spans := []engine.MatchSpan{
		{KoreanPhrases: []string{"하"}},
		{KoreanPhrases: []string{"가"}},
	}
	got := CountPhrases(spans)
	if len(got) != 2 || got[0].Text != "가" || got[1].Text != "하" {
		t.Errorf("CountPhrases = %+v", got)
	}
	if len(CountPhrases(nil)) != 0 {
		t.Error("expected no phrases for no spans")
	}
}

type stubTx struct {
	calls  []map[string]any
	failAt int
}

func (s *stubTx) Run(_ context.Context, _ string, params map[string]any) (neo4j.ResultWithContext, error) {
	s.calls = append(s.calls, params)
	if len(s.calls) == s.failAt {
		return nil, errors.New("link failed")
	}
	return nil, nil
}

func TestIndexFileTx(t *testing.T) {
	phrases := []PhraseCount{{Text: "확인", Count: 2}}

	tx := &stubTx{}
	if err := indexFileTx(context.Background(), tx, "/src/a.tsx", phrases); err != nil {
		t.Fatalf("indexFileTx: %v", err)
	}
	if len(tx.calls) != 2 {
		t.Fatalf("got %d statements, want reset and link", len(tx.calls))
	}
	rows := []any{map[string]any{"text": "확인", "count": 2}}
	if !reflect.DeepEqual(tx.calls[1]["phrases"], rows) {
		t.Errorf("phrases param = %v, want %v", tx.calls[1]["phrases"], rows)
	}

	empty := &stubTx{}
	if err := indexFileTx(context.Background(), empty, "/src/b.tsx", nil); err != nil {
		t.Fatalf("indexFileTx: %v", err)
	}
	if len(empty.calls) != 1 {
		t.Errorf("got %d statements for no phrases, want 1", len(empty.calls))
	}
}

func TestIndexFileTxReturnsLinkError(t *testing.T) {
	tx := &stubTx{failAt: 2}
	err := indexFileTx(context.Background(), tx, "/src/a.tsx", []PhraseCount{{Text: "확인", Count: 1}})
	if err == nil {
		t.Fatal("expected link error so the transaction rolls back")
	}
	if len(tx.calls) != 2 {
		t.Errorf("got %d statements, want 2", len(tx.calls))
	}
}
