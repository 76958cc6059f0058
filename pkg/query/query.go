package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/util"
	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
	"github.com/OFFIS-RIT/papergraph/pkg/store"
)

const (
	ModeCypher   = "cypher"
	ModeFallback = "fallback"

	SummaryType = "comprehensive"

	auditTimeFormat = "2006-01-02 15:04:05"
)

// ErrNoAnswerer is returned when a QueryClient has no strategy to answer with.
var ErrNoAnswerer = errors.New("query chain not initialized")

// Answerer turns a question into an answer using the graph of the current
// namespace.
type Answerer interface {
	Answer(ctx context.Context, question string, trace Tracer) (string, error)
	Mode() string
}

// Response is the result of one question.
type Response struct {
	Answer    string    `json:"answer"`
	Question  string    `json:"question"`
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model"`
	Graph     string    `json:"graph"`
	Mode      string    `json:"mode"`
	Sources   []string  `json:"sources,omitempty"`
	Queries   []string  `json:"queries,omitempty"`
	Rows      int       `json:"rows"`

	SummaryType string `json:"summary_type,omitempty"`
	GraphName   string `json:"graph_name,omitempty"`
}

type clientOptions struct {
	mode   string
	tracer Tracer
}

// ClientOption configures a QueryClient at construction.
type ClientOption func(*clientOptions)

// WithMode forces a strategy. ModeFallback skips schema introspection.
func WithMode(mode string) ClientOption {
	return func(o *clientOptions) {
		o.mode = mode
	}
}

// WithTracer forwards every trace event of the client to t, in addition to
// the per-call trace summarised in the Response.
func WithTracer(t Tracer) ClientOption {
	return func(o *clientOptions) {
		o.tracer = t
	}
}

type queryOptions struct {
	audit bool
}

// QueryOption configures a single Query call.
type QueryOption func(*queryOptions)

// WithoutAudit suppresses the provenance suffix appended to answers.
func WithoutAudit() QueryOption {
	return func(o *queryOptions) {
		o.audit = false
	}
}

// QueryClient answers questions against one graph namespace. The strategy
// is chosen once by NewQueryClient and never re-evaluated.
type QueryClient struct {
	answerer Answerer
	graph    string
	model    string
	tracer   Tracer
	now      func() time.Time
}

// NewQueryClientParams defines the collaborators of a QueryClient. Model is
// the already resolved model name and is only used for provenance.
type NewQueryClientParams struct {
	AI    ai.GraphAIClient
	Store store.GraphStore
	Model string
}

// NewQueryClient selects the answering strategy for the namespace the store
// is connected to: the Cypher chain when the schema can be read, the
// keyword chain otherwise.
func NewQueryClient(ctx context.Context, params NewQueryClientParams, opts ...ClientOption) (*QueryClient, error) {
	if params.AI == nil || params.Store == nil {
		return nil, ErrNoAnswerer
	}

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &QueryClient{
		graph:  params.Store.Database(),
		model:  params.Model,
		tracer: o.tracer,
		now:    time.Now,
	}

	if o.mode == ModeFallback {
		c.answerer = newKeywordChain(params.AI, params.Store)
		return c, nil
	}

	schema, err := params.Store.Schema(ctx)
	if err != nil {
		if o.mode == ModeCypher {
			return nil, fmt.Errorf("failed to read graph schema: %w", err)
		}
		logger.Warn("[Query] Schema unavailable, using fallback query mode", "graph", c.graph, "err", err)
		c.answerer = newKeywordChain(params.AI, params.Store)
		return c, nil
	}

	c.answerer = newCypherChain(params.AI, params.Store, schema)
	return c, nil
}

// Mode reports which strategy answers questions.
func (c *QueryClient) Mode() string {
	if c == nil || c.answerer == nil {
		return ""
	}
	return c.answerer.Mode()
}

// Graph returns the namespace the client was built for.
func (c *QueryClient) Graph() string {
	return c.graph
}

func (c *QueryClient) auditSuffix(at time.Time) string {
	return fmt.Sprintf("\n\n---\n*Generated from knowledge graph '%s' at %s using %s*", c.graph, at.Format(auditTimeFormat), c.model)
}

// Query answers question. Citation markers are normalised and collected
// into Sources before the audit suffix is appended.
func (c *QueryClient) Query(ctx context.Context, question string, opts ...QueryOption) (*Response, error) {
	if c == nil || c.answerer == nil {
		return nil, ErrNoAnswerer
	}

	o := queryOptions{audit: true}
	for _, opt := range opts {
		opt(&o)
	}

	trace := NewQueryTrace()
	var t Tracer = trace
	if c.tracer != nil {
		t = MultiTracer{trace, c.tracer}
	}

	start := c.now()
	answer, err := c.answerer.Answer(ctx, question, t)
	if err != nil {
		logger.Error("[Query] Query failed", "graph", c.graph, "mode", c.answerer.Mode(), "err", err)
		return nil, fmt.Errorf("query failed: %w", err)
	}

	answer = util.NormalizeCitations(strings.TrimSpace(answer))
	sources := util.ExtractCitations(answer)
	RecordSources(t, sources...)

	now := c.now()
	if o.audit {
		answer += c.auditSuffix(now)
	}

	snap := trace.Snapshot()
	logger.Info("[Query] Answered", "graph", c.graph, "mode", c.answerer.Mode(), "rows", snap.Rows, "sources", len(sources), "duration", now.Sub(start))

	return &Response{
		Answer:    answer,
		Question:  question,
		Timestamp: now,
		Model:     c.model,
		Graph:     c.graph,
		Mode:      c.answerer.Mode(),
		Sources:   sources,
		Queries:   snap.Queries,
		Rows:      snap.Rows,
	}, nil
}

// Summary asks for an overview of every paper in the graph.
func (c *QueryClient) Summary(ctx context.Context, graphName string) (*Response, error) {
	res, err := c.Query(ctx, ai.SummaryPrompt)
	if err != nil {
		return nil, err
	}
	res.SummaryType = SummaryType
	res.GraphName = graphName
	return res, nil
}
