package graph

import (
	"context"
	"fmt"
	"sort"

	"locale-tool/internal/engine"
	"locale-tool/internal/textutil"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// PhraseCount is how often one phrase occurs in a file.
type PhraseCount struct {
	Text  string
	Count int
}

// CountPhrases tallies the Korean phrases of spans, most frequent first and
// then alphabetically.
func CountPhrases(spans []engine.MatchSpan) []PhraseCount {
	counts := make(map[string]int)
	for _, s := range spans {
		for _, p := range s.KoreanPhrases {
			counts[p]++
		}
	}

	out := make([]PhraseCount, 0, len(counts))
	for text, n := range counts {
		out = append(out, PhraseCount{Text: text, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Text < out[j].Text
	})
	return out
}

// GraphBuilder writes the phrase inventory:
// (:SourceFile {path})-[:CONTAINS {count}]->(:Phrase {text}).
type GraphBuilder struct {
	driver neo4j.DriverWithContext
}

// NewGraphBuilder creates a new graph builder.
func NewGraphBuilder(driver neo4j.DriverWithContext) *GraphBuilder {
	return &GraphBuilder{driver: driver}
}

// Connect opens a driver and verifies connectivity.
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")
	return driver, nil
}

// EnsureSchema creates constraints on the Neo4j database.
func (gb *GraphBuilder) EnsureSchema(ctx context.Context) error {
	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (p:Phrase) REQUIRE p.text IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (f:SourceFile) REQUIRE f.path IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// cypherRunner is the part of a transaction IndexFile needs.
type cypherRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultWithContext, error)
}

// IndexFile replaces the phrases recorded for path in a single write
// transaction, so a failed link keeps the previous edges.
func (gb *GraphBuilder) IndexFile(ctx context.Context, path string, phrases []PhraseCount) error {
	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, indexFileTx(ctx, tx, path, phrases)
	})
	if err != nil {
		ev := log.Warn().Err(err).Str("file", path).Int("phrases", len(phrases))
		if len(phrases) > 0 {
			ev = ev.Str("top_phrase", textutil.Truncate(phrases[0].Text, 30))
		}
		ev.Msg("Failed to index file")
		return err
	}

	log.Debug().Str("file", path).Int("phrases", len(phrases)).Msg("Indexed file phrases")
	return nil
}

func indexFileTx(ctx context.Context, tx cypherRunner, path string, phrases []PhraseCount) error {
	_, err := tx.Run(ctx, `
		MERGE (f:SourceFile {path: $path})
		WITH f
		OPTIONAL MATCH (f)-[r:CONTAINS]->(:Phrase)
		DELETE r
	`, map[string]any{"path": path})
	if err != nil {
		return fmt.Errorf("reset file %s: %w", path, err)
	}

	if len(phrases) == 0 {
		return nil
	}

	_, err = tx.Run(ctx, `
		MATCH (f:SourceFile {path: $path})
		UNWIND $phrases AS row
		MERGE (p:Phrase {text: row.text})
		MERGE (f)-[r:CONTAINS]->(p)
		SET r.count = row.count
	`, map[string]any{
		"path":    path,
		"phrases": phraseRows(phrases),
	})
	if err != nil {
		return fmt.Errorf("link phrases for %s: %w", path, err)
	}
	return nil
}

func phraseRows(phrases []PhraseCount) []any {
	rows := make([]any, 0, len(phrases))
	for _, p := range phrases {
		rows = append(rows, map[string]any{"text": p.Text, "count": p.Count})
	}
	return rows
}
