package neo4j

import (
	"context"
	"fmt"
	"sort"

	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
)

func (s *GraphNeo4jStorage) column(ctx context.Context, db, query, key string) ([]string, error) {
	rows, err := s.run.read(ctx, db, query, nil)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if v, ok := row[key].(string); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// Schema lists the labels, relationship types and property keys of the
// current namespace.
func (s *GraphNeo4jStorage) Schema(ctx context.Context) (common.Schema, error) {
	db, err := s.current()
	if err != nil {
		return common.Schema{}, err
	}

	var schema common.Schema
	if schema.Labels, err = s.column(ctx, db, "CALL db.labels() YIELD label RETURN label", "label"); err != nil {
		return common.Schema{}, fmt.Errorf("failed to read labels: %w", err)
	}
	if schema.RelationshipTypes, err = s.column(ctx, db, "CALL db.relationshipTypes() YIELD relationshipType RETURN relationshipType", "relationshipType"); err != nil {
		return common.Schema{}, fmt.Errorf("failed to read relationship types: %w", err)
	}
	if schema.PropertyKeys, err = s.column(ctx, db, "CALL db.propertyKeys() YIELD propertyKey RETURN propertyKey", "propertyKey"); err != nil {
		return common.Schema{}, fmt.Errorf("failed to read property keys: %w", err)
	}
	return withoutLockSchema(db, schema), nil
}

// Query runs a read-only Cypher statement in the current namespace. Any
// failure is logged and reported as an empty result.
func (s *GraphNeo4jStorage) Query(ctx context.Context, query string, params map[string]any) []map[string]any {
	db, err := s.current()
	if err != nil {
		logger.Error("[Neo4j] Query without database", "err", err)
		return []map[string]any{}
	}

	rows, err := s.run.read(ctx, db, query, params)
	if err != nil {
		logger.Error("[Neo4j] Query failed", "database", db, "query", query, "err", err)
		return []map[string]any{}
	}
	return rows
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// Stats counts nodes, relationships and nodes per label of the current
// namespace.
func (s *GraphNeo4jStorage) Stats(ctx context.Context) (common.GraphStats, error) {
	db, err := s.current()
	if err != nil {
		return common.GraphStats{}, err
	}
	stats := common.GraphStats{Database: db, Labels: map[string]int64{}}

	rows, err := s.run.read(ctx, db, "MATCH (n) WHERE NOT n:"+lockLabel+" RETURN count(n) AS count", nil)
	if err != nil {
		return common.GraphStats{}, fmt.Errorf("failed to count nodes: %w", err)
	}
	if len(rows) > 0 {
		stats.Nodes = asInt64(rows[0]["count"])
	}

	rows, err = s.run.read(ctx, db, "MATCH ()-[r]->() RETURN count(r) AS count", nil)
	if err != nil {
		return common.GraphStats{}, fmt.Errorf("failed to count relationships: %w", err)
	}
	if len(rows) > 0 {
		stats.Relationships = asInt64(rows[0]["count"])
	}

	rows, err = s.run.read(ctx, db, "MATCH (n) WHERE NOT n:"+lockLabel+" UNWIND labels(n) AS label RETURN label, count(*) AS count", nil)
	if err != nil {
		return common.GraphStats{}, fmt.Errorf("failed to count labels: %w", err)
	}
	for _, row := range rows {
		if label, ok := row["label"].(string); ok {
			stats.Labels[label] = asInt64(row["count"])
		}
	}
	return stats, nil
}

// ListDatabases returns the online user databases, sorted. The system and
// default databases are left out.
func (s *GraphNeo4jStorage) ListDatabases(ctx context.Context) ([]string, error) {
	rows, err := s.run.admin(ctx, "SHOW DATABASES YIELD name, currentStatus RETURN name, currentStatus", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}

	seen := map[string]struct{}{}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		name, _ := row["name"].(string)
		status, _ := row["currentStatus"].(string)
		if name == "" || name == systemDatabase || name == lockDatabase || status != "online" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
