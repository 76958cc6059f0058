package graph

import (
	"time"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// PromptType identifies the extraction instruction in batch metadata.
const PromptType = "academic_research"

// DefaultNodeTypes is the entity taxonomy used when none is configured.
var DefaultNodeTypes = []string{
	"ResearchConcept", "Method", "Author", "Institution", "Publication", "Conference",
	"Journal", "Dataset", "Algorithm", "Result", "Conclusion", "Reference",
}

// DefaultRelationshipTypes is the relationship taxonomy used when none is configured.
var DefaultRelationshipTypes = []string{
	"AUTHORED_BY", "PUBLISHED_IN", "CITED_BY", "USES_METHOD", "HAS_RESULT",
	"COMPARED_WITH", "EXTENDS", "CONTRIBUTES_TO",
}

// GraphClient turns chunks into graph documents through an LLM.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	ai                 ai.GraphAIClient
	model              string
	parallelAiRequests int
	maxRetries         int
	nodeTypes          []string
	relationshipTypes  []string

	now   func() time.Time
	newID func() (string, error)
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// Model is recorded in batch metadata and passed to every request.
// ParallelAiRequests controls how many chunks are extracted concurrently and
// defaults to 1. MaxRetries bounds attempts per chunk on transport errors and
// defaults to 1.
type NewGraphClientParams struct {
	AI                 ai.GraphAIClient
	Model              string
	ParallelAiRequests int
	MaxRetries         int
	NodeTypes          []string
	RelationshipTypes  []string
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		AI:    aiClient,
//		Model: "llama3.1:latest",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	parallel := params.ParallelAiRequests
	if parallel <= 0 {
		parallel = 1
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	nodeTypes := params.NodeTypes
	if len(nodeTypes) == 0 {
		nodeTypes = DefaultNodeTypes
	}
	relTypes := params.RelationshipTypes
	if len(relTypes) == 0 {
		relTypes = DefaultRelationshipTypes
	}

	g := &GraphClient{
		ai:                 params.AI,
		model:              params.Model,
		parallelAiRequests: parallel,
		maxRetries:         maxRetries,
		nodeTypes:          nodeTypes,
		relationshipTypes:  relTypes,
		now:                time.Now,
		newID:              func() (string, error) { return gonanoid.New() },
	}

	return g, nil
}
