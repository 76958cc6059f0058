package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/store"
)

// ErrWriteQuery is returned when the generated statement would modify the graph.
var ErrWriteQuery = errors.New("generated query is not read-only")

var (
	reWriteClause = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|FOREACH|LOAD\s+CSV)\b|\bCALL\s+(dbms|apoc\.(create|merge|refactor|periodic))`)
	reStringLit   = regexp.MustCompile(`'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"`)
	reCypherLabel = regexp.MustCompile(`(?i)^\s*cypher\s*:?\s*`)
)

// cypherChain lets the model translate the question into Cypher over the
// namespace schema, runs it and has the model phrase a cited answer from
// the rows.
type cypherChain struct {
	ai     ai.GraphAIClient
	store  store.GraphStore
	schema string
}

func newCypherChain(aiClient ai.GraphAIClient, s store.GraphStore, schema common.Schema) *cypherChain {
	return &cypherChain{ai: aiClient, store: s, schema: formatSchema(schema)}
}

func (c *cypherChain) Mode() string { return ModeCypher }

func formatSchema(s common.Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Node labels: %s\n", strings.Join(s.Labels, ", "))
	fmt.Fprintf(&b, "Relationship types: %s\n", strings.Join(s.RelationshipTypes, ", "))
	fmt.Fprintf(&b, "Properties: %s", strings.Join(s.PropertyKeys, ", "))
	return b.String()
}

// cleanCypher removes code fences and a leading "cypher" tag the model
// sometimes adds.
func cleanCypher(raw string) string {
	q := strings.TrimSpace(ai.StripCodeFence(raw))
	q = reCypherLabel.ReplaceAllString(q, "")
	return strings.TrimSuffix(strings.TrimSpace(q), ";")
}

// isReadOnly reports whether q contains no writing clause outside of string
// literals.
func isReadOnly(q string) bool {
	return !reWriteClause.MatchString(reStringLit.ReplaceAllString(q, "''"))
}

func formatRows(rows []map[string]any) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		b, err := json.Marshal(row)
		if err != nil {
			lines = append(lines, fmt.Sprint(row))
			continue
		}
		lines = append(lines, string(b))
	}
	return strings.Join(lines, "\n")
}

func (c *cypherChain) Answer(ctx context.Context, question string, trace Tracer) (string, error) {
	raw, err := c.ai.GenerateCompletion(ctx, fmt.Sprintf(ai.CypherPrompt, c.schema, question))
	if err != nil {
		return "", fmt.Errorf("failed to generate cypher: %w", err)
	}

	q := cleanCypher(raw)
	RecordGeneratedQuery(trace, q)
	if q == "" {
		return ai.NoDataAnswer, nil
	}
	if !isReadOnly(q) {
		return "", fmt.Errorf("%w: %s", ErrWriteQuery, q)
	}

	start := time.Now()
	rows := c.store.Query(ctx, q, nil)
	RecordExecutedQuery(trace, q, len(rows), time.Since(start).Milliseconds())
	// no rows means no grounding, so the QA prompt is skipped
	if len(rows) == 0 {
		return ai.NoDataAnswer, nil
	}

	answer, err := c.ai.GenerateCompletion(ctx, fmt.Sprintf(ai.QAPrompt, formatRows(rows), question))
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}
