package pipeline

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/papergraph/internal/config"
	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	oai "github.com/OFFIS-RIT/papergraph/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/papergraph/pkg/ai/openai"
	"github.com/OFFIS-RIT/papergraph/pkg/chunker"
	"github.com/OFFIS-RIT/papergraph/pkg/graph"
	"github.com/OFFIS-RIT/papergraph/pkg/leaselock"
	"github.com/OFFIS-RIT/papergraph/pkg/loader/auto"
	ioloader "github.com/OFFIS-RIT/papergraph/pkg/loader/io"
	"github.com/OFFIS-RIT/papergraph/pkg/loader/web"
	"github.com/OFFIS-RIT/papergraph/pkg/query"
	"github.com/OFFIS-RIT/papergraph/pkg/registry"
	"github.com/OFFIS-RIT/papergraph/pkg/store/neo4j"
)

// NewAIClient creates the LLM client selected by cfg.Adapter for model.
func NewAIClient(cfg config.AI, model string) (ai.GraphAIClient, error) {
	switch cfg.Adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			Model:       model,
			Temperature: cfg.Temperature,

			BaseURL: cfg.URL,
			ApiKey:  cfg.Key,

			MaxConcurrentRequests: int64(cfg.ParallelReq),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return client, nil
	case "openai":
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			Model:       model,
			Temperature: cfg.Temperature,

			ChatURL: cfg.URL,
			ChatKey: cfg.Key,

			MaxConcurrentRequests: int64(cfg.ParallelReq),
		}), nil
	}
	return nil, fmt.Errorf("unknown AI adapter %q", cfg.Adapter)
}

// Setup resolves the model and builds every component from cfg. The
// returned function closes the graph database driver.
func Setup(ctx context.Context, cfg config.Config) (*Pipeline, func(context.Context) error, error) {
	probe, err := NewAIClient(cfg.AI, cfg.AI.Model)
	if err != nil {
		return nil, nil, err
	}
	resolved, err := config.Resolve(ctx, cfg, probe)
	if err != nil {
		return nil, nil, err
	}

	aiClient := probe
	if resolved.Model != cfg.AI.Model {
		aiClient, err = NewAIClient(cfg.AI, resolved.Model)
		if err != nil {
			return nil, nil, err
		}
	}

	gc, err := graph.NewGraphClient(graph.NewGraphClientParams{
		AI:                 aiClient,
		Model:              resolved.Model,
		ParallelAiRequests: cfg.Extraction.Parallel,
		MaxRetries:         cfg.Extraction.MaxRetries,
	})
	if err != nil {
		return nil, nil, err
	}

	ch, err := chunker.NewChunker(chunker.NewChunkerParams{
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
		TokenEncoder: cfg.Chunking.TokenEncoder,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("invalid chunking settings: %w", err)
	}

	graphStore, err := neo4j.NewGraphNeo4jStorage(neo4j.NewGraphNeo4jStorageParams{
		URI:         cfg.Neo4j.URI,
		Username:    cfg.Neo4j.Username,
		Password:    cfg.Neo4j.Password,
		SettleDelay: cfg.Neo4j.SettleDelay,
	})
	if err != nil {
		return nil, nil, err
	}

	var queryOpts []query.ClientOption
	if cfg.QueryMode != "" {
		queryOpts = append(queryOpts, query.WithMode(cfg.QueryMode))
	}

	pageLoader := auto.NewAutoGraphLoader(auto.NewAutoGraphLoaderParams{
		Files: ioloader.NewIOGraphFileLoader(),
		Web:   web.NewWebGraphLoader(nil),
	})

	p, err := New(Params{
		AI:           aiClient,
		Model:        resolved.Model,
		Store:        graphStore,
		Graph:        gc,
		Chunker:      ch,
		Loader:       pageLoader,
		Registry:     registry.New(cfg.GraphConfigFile),
		Extracted:    registry.NewExtractedStore(cfg.ExtractedDir),
		QueryOptions: queryOpts,
		Locker:       leaselock.New(graphStore),
	})
	if err != nil {
		graphStore.Close(ctx)
		return nil, nil, err
	}
	return p, graphStore.Close, nil
}
