package graph

import (
	"sort"

	"github.com/OFFIS-RIT/papergraph/pkg/common"
)

// Summary describes the schema of an extraction batch.
type Summary struct {
	NodeTypes           []string       `json:"node_types"`
	RelationshipTypes   []string       `json:"relationship_types"`
	Papers              []string       `json:"papers"`
	TotalNodes          int            `json:"total_nodes"`
	TotalRelationships  int            `json:"total_relationships"`
	NodesByType         map[string]int `json:"nodes_by_type"`
	RelationshipsByType map[string]int `json:"relationships_by_type"`
}

// Summarize counts nodes and relationships across docs. Totals are per
// document, so a node extracted from two chunks is counted twice.
func Summarize(docs []common.GraphDocument) Summary {
	s := Summary{
		NodesByType:         map[string]int{},
		RelationshipsByType: map[string]int{},
	}

	papers := map[string]struct{}{}
	for _, d := range docs {
		for _, n := range d.Nodes {
			s.NodesByType[n.Type]++
			s.TotalNodes++
		}
		for _, r := range d.Relationships {
			s.RelationshipsByType[r.Type]++
			s.TotalRelationships++
		}
		for _, p := range d.Metadata.SourcePapers {
			papers[p] = struct{}{}
		}
	}

	s.NodeTypes = sortedKeys(s.NodesByType)
	s.RelationshipTypes = sortedKeys(s.RelationshipsByType)
	s.Papers = make([]string, 0, len(papers))
	for p := range papers {
		s.Papers = append(s.Papers, p)
	}
	sort.Strings(s.Papers)

	return s
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
