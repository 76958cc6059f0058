package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/common"
)

type extractNode struct {
	ID   string `json:"id" jsonschema_description:"Name of the entity as it appears in the text"`
	Type string `json:"type" jsonschema_description:"One of the provided entity types"`
}

type extractRelationship struct {
	SourceNodeID   string `json:"source_node_id" jsonschema_description:"Id of the source entity"`
	SourceNodeType string `json:"source_node_type" jsonschema_description:"Type of the source entity"`
	TargetNodeID   string `json:"target_node_id" jsonschema_description:"Id of the target entity"`
	TargetNodeType string `json:"target_node_type" jsonschema_description:"Type of the target entity"`
	Type           string `json:"type" jsonschema_description:"One of the provided relationship types"`
}

type extractResponse struct {
	Nodes         []extractNode         `json:"nodes" jsonschema_description:"Entities identified in the text"`
	Relationships []extractRelationship `json:"relationships" jsonschema_description:"Relationships identified in the text"`
}

func (g *GraphClient) extractPrompt(chunk common.Chunk) string {
	return fmt.Sprintf(
		ai.ExtractPrompt,
		strings.Join(g.nodeTypes, ", "),
		strings.Join(g.relationshipTypes, ", "),
		chunk.Metadata.PaperName,
		chunk.Text,
	)
}

// extractFromChunk runs one extraction request. A nil error with a failed
// outcome means the model answered but the payload was unusable.
func (g *GraphClient) extractFromChunk(
	ctx context.Context,
	chunk common.Chunk,
) (common.GraphDocument, ai.ParseResult, error) {
	var res extractResponse
	opts := []ai.GenerateOption{}
	if g.model != "" {
		opts = append(opts, ai.WithModel(g.model))
	}

	parsed, err := g.ai.GenerateCompletionWithFormat(
		ctx,
		"extract_research_graph",
		"Extract entities and relationships from a research paper excerpt.",
		g.extractPrompt(chunk),
		&res,
		opts...,
	)
	if err != nil {
		return common.GraphDocument{}, parsed, err
	}
	if !parsed.OK() {
		return emptyDocument(), parsed, nil
	}

	return toDocument(res), parsed, nil
}

func emptyDocument() common.GraphDocument {
	return common.GraphDocument{
		Nodes:         []common.Node{},
		Relationships: []common.Relationship{},
	}
}

func toDocument(res extractResponse) common.GraphDocument {
	nodes := make([]common.Node, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		nodes = append(nodes, common.Node{ID: n.ID, Type: n.Type})
	}

	relations := make([]common.Relationship, 0, len(res.Relationships))
	for _, r := range res.Relationships {
		relations = append(relations, common.Relationship{
			Source: common.Node{ID: r.SourceNodeID, Type: r.SourceNodeType},
			Target: common.Node{ID: r.TargetNodeID, Type: r.TargetNodeType},
			Type:   r.Type,
		})
	}

	nodes, relations = mergeNodesAndRelationships(nodes, relations)
	return common.GraphDocument{Nodes: nodes, Relationships: relations}
}
