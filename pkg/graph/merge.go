package graph

import (
	"strings"

	"github.com/OFFIS-RIT/papergraph/pkg/common"
)

func cleanNode(n common.Node) (common.Node, bool) {
	n.ID = strings.TrimSpace(n.ID)
	n.Type = strings.TrimSpace(n.Type)
	return n, n.ID != "" && n.Type != ""
}

// mergeNodesAndRelationships builds the node and relationship sets of one
// document. Relationship endpoints are added to the node set, nodes collapse
// on (id, type) and relationships on (source, target, type). First-seen order
// is kept.
func mergeNodesAndRelationships(
	nodes []common.Node,
	relations []common.Relationship,
) ([]common.Node, []common.Relationship) {
	outNodes := make([]common.Node, 0, len(nodes))
	seenNodes := make(map[string]struct{}, len(nodes))
	addNode := func(n common.Node) {
		if _, ok := seenNodes[n.Key()]; ok {
			return
		}
		seenNodes[n.Key()] = struct{}{}
		outNodes = append(outNodes, n)
	}

	for _, n := range nodes {
		if n, ok := cleanNode(n); ok {
			addNode(n)
		}
	}

	outRels := make([]common.Relationship, 0, len(relations))
	seenRels := make(map[string]struct{}, len(relations))
	for _, rel := range relations {
		src, okS := cleanNode(rel.Source)
		tgt, okT := cleanNode(rel.Target)
		rel.Type = strings.TrimSpace(rel.Type)
		if !okS || !okT || rel.Type == "" {
			continue
		}
		rel.Source, rel.Target = src, tgt

		addNode(src)
		addNode(tgt)

		if _, ok := seenRels[rel.Key()]; ok {
			continue
		}
		seenRels[rel.Key()] = struct{}{}
		outRels = append(outRels, rel)
	}

	return outNodes, outRels
}
