package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/chunker"
	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/graph"
	"github.com/OFFIS-RIT/papergraph/pkg/leaselock"
	"github.com/OFFIS-RIT/papergraph/pkg/loader"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
	"github.com/OFFIS-RIT/papergraph/pkg/query"
	"github.com/OFFIS-RIT/papergraph/pkg/registry"
	"github.com/OFFIS-RIT/papergraph/pkg/store"
)

// ErrNoDataset is returned when an operation needs a dataset and none was
// given or connected before.
var ErrNoDataset = errors.New("no dataset selected")

// Pipeline holds the components of the assistant and runs one operation at
// a time against them.
//
// A Pipeline should be created using New.
type Pipeline struct {
	mu sync.Mutex

	ai        ai.GraphAIClient
	model     string
	store     store.GraphStore
	graph     *graph.GraphClient
	chunker   *chunker.Chunker
	loader    loader.PageLoader
	registry  *registry.Registry
	extracted *registry.ExtractedStore
	queryOpts []query.ClientOption
	locker    Locker

	answerer *query.QueryClient
}

// Locker serializes work on a key across processes.
type Locker interface {
	WithLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error
}

// Params lists the collaborators of a Pipeline. Model is the resolved model
// name. QueryOptions are applied whenever a query client is built. Without a
// Locker, ingestion is only serialized within the process.
type Params struct {
	AI           ai.GraphAIClient
	Model        string
	Store        store.GraphStore
	Graph        *graph.GraphClient
	Chunker      *chunker.Chunker
	Loader       loader.PageLoader
	Registry     *registry.Registry
	Extracted    *registry.ExtractedStore
	QueryOptions []query.ClientOption
	Locker       Locker
}

func New(params Params) (*Pipeline, error) {
	switch {
	case params.AI == nil:
		return nil, errors.New("pipeline: missing AI client")
	case params.Store == nil:
		return nil, errors.New("pipeline: missing graph store")
	case params.Graph == nil:
		return nil, errors.New("pipeline: missing graph client")
	case params.Chunker == nil:
		return nil, errors.New("pipeline: missing chunker")
	case params.Loader == nil:
		return nil, errors.New("pipeline: missing page loader")
	case params.Registry == nil || params.Extracted == nil:
		return nil, errors.New("pipeline: missing registry")
	}

	return &Pipeline{
		ai:        params.AI,
		model:     params.Model,
		store:     params.Store,
		graph:     params.Graph,
		chunker:   params.Chunker,
		loader:    params.Loader,
		registry:  params.Registry,
		extracted: params.Extracted,
		queryOpts: params.QueryOptions,
		locker:    params.Locker,
	}, nil
}

// Model returns the resolved model name.
func (p *Pipeline) Model() string {
	return p.model
}

// connect selects dataset and rebuilds the query client when the namespace
// changes. The caller holds p.mu.
func (p *Pipeline) connect(ctx context.Context, dataset string) (string, error) {
	if dataset == "" {
		dataset = p.store.Database()
		if dataset == "" {
			return "", ErrNoDataset
		}
	}

	db, err := p.store.Connect(ctx, dataset)
	if err != nil {
		return "", err
	}
	if p.answerer != nil && p.answerer.Graph() == db {
		return db, nil
	}

	qc, err := query.NewQueryClient(ctx, query.NewQueryClientParams{
		AI:    p.ai,
		Store: p.store,
		Model: p.model,
	}, p.queryOpts...)
	if err != nil {
		return "", err
	}
	p.answerer = qc
	logger.Info("[Pipeline] Query chain ready", "database", db, "mode", qc.Mode())
	return db, nil
}

// Connect selects the dataset used by later operations and returns its
// sanitized namespace name.
func (p *Pipeline) Connect(ctx context.Context, dataset string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connect(ctx, dataset)
}

// Query answers question against dataset, or against the current dataset
// when dataset is empty.
func (p *Pipeline) Query(ctx context.Context, dataset, question string, opts ...query.QueryOption) (*query.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.connect(ctx, dataset); err != nil {
		return nil, err
	}
	return p.answerer.Query(ctx, question, opts...)
}

// Summary runs the overview prompt against dataset.
func (p *Pipeline) Summary(ctx context.Context, dataset string) (*query.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.connect(ctx, dataset); err != nil {
		return nil, err
	}
	name := dataset
	if name == "" {
		name = p.store.Database()
	}
	return p.answerer.Summary(ctx, name)
}

// SchemaReport describes the content of one namespace.
type SchemaReport struct {
	Schema common.Schema     `json:"schema"`
	Stats  common.GraphStats `json:"stats"`
	Mode   string            `json:"mode"`
}

// Schema reports the content of dataset. When the schema cannot be read
// the report carries only the statistics, matching the fallback query mode.
func (p *Pipeline) Schema(ctx context.Context, dataset string) (*SchemaReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	db, err := p.connect(ctx, dataset)
	if err != nil {
		return nil, err
	}
	schema, err := p.store.Schema(ctx)
	if err != nil {
		logger.Warn("[Pipeline] Schema unavailable", "database", db, "err", err)
		schema = common.Schema{}
	}
	stats, err := p.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &SchemaReport{Schema: schema, Stats: stats, Mode: p.answerer.Mode()}, nil
}

// Datasets lists the registered datasets.
func (p *Pipeline) Datasets() []common.Dataset {
	return p.registry.Load()
}

// Papers lists the papers with cached extracted content.
func (p *Pipeline) Papers() ([]string, error) {
	return p.extracted.ListPapers()
}

// Databases lists the graph namespaces available on the server.
func (p *Pipeline) Databases(ctx context.Context) ([]string, error) {
	return p.store.ListDatabases(ctx)
}

// Models lists the models the LLM backend offers.
func (p *Pipeline) Models(ctx context.Context) ([]string, error) {
	return p.ai.ListModels(ctx)
}

// Health reports the reachability of the graph database and the LLM.
type Health struct {
	Neo4j    string `json:"neo4j"`
	LLM      string `json:"llm"`
	Model    string `json:"model"`
	Database string `json:"database,omitempty"`
}

func (h Health) OK() bool {
	return h.Neo4j == "ok" && h.LLM == "ok"
}

func status(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}

func (p *Pipeline) Health(ctx context.Context) Health {
	_, err := p.ai.ListModels(ctx)
	return Health{
		Neo4j:    status(p.store.Ping(ctx)),
		LLM:      status(err),
		Model:    p.model,
		Database: p.store.Database(),
	}
}

// logMetrics writes the accumulated LLM usage and resets the counters.
func (p *Pipeline) logMetrics(dataset string, took time.Duration) {
	metrics := p.ai.GetMetrics()
	aiDuration := time.Duration(metrics.DurationMs) * time.Millisecond
	logger.Info(
		"[Pipeline] AI Metrics",
		"dataset", dataset,
		"requests", metrics.Requests,
		"input_tokens", metrics.InputTokens,
		"output_tokens", metrics.OutputTokens,
		"total_tokens", metrics.TotalTokens,
		"tokens_per_second", metrics.TokenPerSecond,
		"ai_duration", aiDuration.Round(time.Second).String(),
		"total_duration", took.Round(time.Second).String(),
	)
	p.ai.ResetMetrics()
}
