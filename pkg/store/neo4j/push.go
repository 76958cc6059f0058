package neo4j

import (
	"context"
	"fmt"
	"sort"

	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
	"github.com/OFFIS-RIT/papergraph/pkg/store"
)

const pushBatchSize = 500

// clearQuery spares lease nodes so a clear never drops a held lock.
const clearQuery = "MATCH (n) WHERE NOT n:" + lockLabel + " DETACH DELETE n"

const paperQuery = `MERGE (p:Paper {name: $name})
SET p.upload_time = datetime(),
    p.processed_at = datetime(),
    p.doi = coalesce($doi, p.doi)`

func nodeQuery(label string) string {
	return fmt.Sprintf(`UNWIND $rows AS row
MERGE (n:%s {id: row.id})
ON CREATE SET n.name = row.name,
              n.type = row.type,
              n.created_at = datetime()`, "`"+label+"`")
}

func relationshipQuery(sourceLabel, targetLabel, relType string) string {
	return fmt.Sprintf(`UNWIND $rows AS row
MATCH (a:%s {id: row.source_id})
MATCH (b:%s {id: row.target_id})
MERGE (a)-[r:%s]->(b)
ON CREATE SET r.created_at = datetime(),
              r.source_paper = row.source_paper
RETURN count(r) AS merged`, "`"+sourceLabel+"`", "`"+targetLabel+"`", "`"+relType+"`")
}

type relGroup struct {
	source, target, relType string
}

// pushPlan is the deduplicated write set of one Push call, grouped by the
// labels that have to be spliced into the query text.
type pushPlan struct {
	nodes      map[string][]map[string]any
	nodeLabels []string
	rels       map[relGroup][]map[string]any
	relGroups  []relGroup
	papers     []string
	dois       map[string]string
	nodeCount  int
}

func planPush(docs []common.GraphDocument) pushPlan {
	p := pushPlan{
		nodes: map[string][]map[string]any{},
		rels:  map[relGroup][]map[string]any{},
		dois:  map[string]string{},
	}

	seenNodes := map[string]struct{}{}
	seenRels := map[string]struct{}{}
	var papers []string

	for _, doc := range docs {
		for _, n := range doc.Nodes {
			label := store.SanitizeLabel(n.Type)
			key := label + "\x00" + n.ID
			if label == "" || n.ID == "" {
				continue
			}
			if _, ok := seenNodes[key]; ok {
				continue
			}
			seenNodes[key] = struct{}{}
			if _, ok := p.nodes[label]; !ok {
				p.nodeLabels = append(p.nodeLabels, label)
			}
			p.nodes[label] = append(p.nodes[label], map[string]any{
				"id":   n.ID,
				"name": n.ID,
				"type": n.Type,
			})
			p.nodeCount++
		}

		sourcePaper := doc.Metadata.FirstSourcePaper()
		for _, r := range doc.Relationships {
			g := relGroup{
				source:  store.SanitizeLabel(r.Source.Type),
				target:  store.SanitizeLabel(r.Target.Type),
				relType: store.SanitizeLabel(r.Type),
			}
			if g.source == "" || g.target == "" || g.relType == "" {
				continue
			}
			key := g.source + "\x00" + r.Source.ID + "\x00" + g.relType + "\x00" + g.target + "\x00" + r.Target.ID
			if _, ok := seenRels[key]; ok {
				continue
			}
			seenRels[key] = struct{}{}
			if _, ok := p.rels[g]; !ok {
				p.relGroups = append(p.relGroups, g)
			}
			p.rels[g] = append(p.rels[g], map[string]any{
				"source_id":    r.Source.ID,
				"target_id":    r.Target.ID,
				"source_paper": sourcePaper,
			})
		}

		papers = append(papers, doc.Metadata.SourcePapers...)
		for paper, doi := range doc.Metadata.PaperDOIs {
			p.dois[paper] = doi
		}
	}

	p.papers = store.DedupeStrings(papers)
	sort.Strings(p.papers)
	return p
}

func countMerged(rows []map[string]any) int {
	total := 0
	for _, row := range rows {
		switch v := row["merged"].(type) {
		case int64:
			total += int(v)
		case int:
			total += v
		}
	}
	return total
}

// Push upserts the nodes and relationships of docs into the current
// namespace, then one Paper node per distinct source paper. Every write is
// an idempotent MERGE, so a repeated Push converges to the same graph. A
// failed clear is logged and the push continues.
func (s *GraphNeo4jStorage) Push(ctx context.Context, docs []common.GraphDocument, opts store.PushOptions) (store.PushResult, error) {
	var res store.PushResult

	db, err := s.current()
	if err != nil {
		return res, err
	}

	if opts.ClearExisting {
		if _, err := s.run.write(ctx, db, clearQuery, nil); err != nil {
			logger.Warn("[Neo4j] Could not clear database", "database", db, "err", err)
		} else {
			logger.Info("[Neo4j] Cleared existing data", "database", db)
		}
	}

	plan := planPush(docs)

	for _, label := range plan.nodeLabels {
		rows := plan.nodes[label]
		err := store.ChunkRange(len(rows), pushBatchSize, func(start, end int) error {
			_, err := s.run.write(ctx, db, nodeQuery(label), map[string]any{"rows": rows[start:end]})
			if err != nil {
				return fmt.Errorf("failed to merge %s nodes: %w", label, err)
			}
			res.Nodes += end - start
			return nil
		})
		if err != nil {
			return res, err
		}
	}

	for _, g := range plan.relGroups {
		rows := plan.rels[g]
		err := store.ChunkRange(len(rows), pushBatchSize, func(start, end int) error {
			out, err := s.run.write(ctx, db, relationshipQuery(g.source, g.target, g.relType), map[string]any{"rows": rows[start:end]})
			if err != nil {
				return fmt.Errorf("failed to merge %s relationships: %w", g.relType, err)
			}
			res.Relationships += countMerged(out)
			return nil
		})
		if err != nil {
			return res, err
		}
	}

	for _, paper := range plan.papers {
		var doi any
		if d := plan.dois[paper]; d != "" {
			doi = d
		}
		if _, err := s.run.write(ctx, db, paperQuery, map[string]any{"name": paper, "doi": doi}); err != nil {
			return res, fmt.Errorf("failed to record paper %q: %w", paper, err)
		}
		res.Papers++
	}

	logger.Info("[Neo4j] Pushed graph data", "database", db, "nodes", res.Nodes, "relationships", res.Relationships, "papers", res.Papers)
	return res, nil
}
