package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/store"
)

const (
	authorQuery  = "MATCH (a:Author) RETURN a.name AS author LIMIT 10"
	paperQuery   = "MATCH (p:Paper) RETURN p.name AS paper LIMIT 10"
	genericQuery = "MATCH (n) WHERE n.name IS NOT NULL RETURN n.name AS name, labels(n)[0] AS type LIMIT 10"
)

// selectQuery picks the canned statement for a question. "author" wins over
// "paper"; matching is case-insensitive on substrings.
func selectQuery(question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "author"):
		return authorQuery
	case strings.Contains(q, "paper"):
		return paperQuery
	default:
		return genericQuery
	}
}

// keywordChain answers from one of three canned statements. It needs no
// schema and works on any namespace.
type keywordChain struct {
	ai    ai.GraphAIClient
	store store.GraphStore
}

func newKeywordChain(aiClient ai.GraphAIClient, s store.GraphStore) *keywordChain {
	return &keywordChain{ai: aiClient, store: s}
}

func (c *keywordChain) Mode() string { return ModeFallback }

// Answer always asks the model, even when the statement returned no rows.
// An empty result and a failed statement look the same here.
func (c *keywordChain) Answer(ctx context.Context, question string, trace Tracer) (string, error) {
	q := selectQuery(question)

	start := time.Now()
	rows := c.store.Query(ctx, q, nil)
	RecordExecutedQuery(trace, q, len(rows), time.Since(start).Milliseconds())

	answer, err := c.ai.GenerateCompletion(ctx, fmt.Sprintf(ai.FallbackPrompt, formatRows(rows), question))
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}
