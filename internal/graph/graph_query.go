package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// SharedPhrase is a phrase found in several files.
type SharedPhrase struct {
	Text        string   `json:"text"`
	Files       []string `json:"files"`
	Occurrences int64    `json:"occurrences"`
}

// GraphQuerier reads the phrase inventory.
type GraphQuerier struct {
	driver neo4j.DriverWithContext
}

// NewGraphQuerier creates a new graph querier.
func NewGraphQuerier(driver neo4j.DriverWithContext) *GraphQuerier {
	return &GraphQuerier{driver: driver}
}

// SharedPhrases lists phrases contained in at least minFiles files, the most
// widely used first. Each is a candidate for a single shared key.
func (gq *GraphQuerier) SharedPhrases(ctx context.Context, minFiles int) ([]SharedPhrase, error) {
	if minFiles < 1 {
		minFiles = 1
	}

	session := gq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (f:SourceFile)-[r:CONTAINS]->(p:Phrase)
		WITH p, collect(f.path) AS files, sum(r.count) AS occurrences
		WHERE size(files) >= $min
		RETURN p.text AS text, files, occurrences
		ORDER BY size(files) DESC, occurrences DESC, text
	`, map[string]any{"min": minFiles})
	if err != nil {
		return nil, fmt.Errorf("query shared phrases: %w", err)
	}

	var phrases []SharedPhrase
	for result.Next(ctx) {
		record := result.Record()
		text, _ := record.Get("text")
		files, _ := record.Get("files")
		occurrences, _ := record.Get("occurrences")

		sp := SharedPhrase{Text: fmt.Sprintf("%v", text)}
		if list, ok := files.([]any); ok {
			for _, f := range list {
				sp.Files = append(sp.Files, fmt.Sprintf("%v", f))
			}
		}
		if n, ok := occurrences.(int64); ok {
			sp.Occurrences = n
		}
		phrases = append(phrases, sp)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read shared phrases: %w", err)
	}

	log.Debug().Int("phrases", len(phrases)).Int("min_files", minFiles).Msg("Shared phrase query complete")
	return phrases, nil
}
