package query

import (
	"sort"
	"sync"
)

type TraceEventKind string

const (
	TraceEventGeneratedQuery TraceEventKind = "generated_query"
	TraceEventExecutedQuery  TraceEventKind = "executed_query"
	TraceEventSources        TraceEventKind = "sources"
)

// TraceEvent is an extensible event envelope for query tracing.
// Additive changes to this struct are backward compatible for implementers.
type TraceEvent struct {
	Kind TraceEventKind

	Query      string
	Rows       int
	Sources    []string
	DurationMs int64
	Error      string
}

// Tracer is a sink for query tracing events.
type Tracer interface {
	Record(event TraceEvent)
}

// MultiTracer fan-outs trace events to multiple tracers.
type MultiTracer []Tracer

func (m MultiTracer) Record(event TraceEvent) {
	for _, t := range m {
		if t == nil {
			continue
		}
		t.Record(event)
	}
}

func RecordGeneratedQuery(t Tracer, query string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventGeneratedQuery, Query: query})
}

func RecordExecutedQuery(t Tracer, query string, rows int, durationMs int64) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventExecutedQuery, Query: query, Rows: rows, DurationMs: durationMs})
}

func RecordSources(t Tracer, sources ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventSources, Sources: sources})
}

// QueryTrace collects what one question ran against the graph: the
// statements in execution order, the rows they returned and the papers the
// answer cites.
//
// QueryTrace is safe for concurrent use.
type QueryTrace struct {
	mu sync.Mutex

	generated int
	queries   []string
	rows      int
	sources   map[string]struct{}
}

type QueryTraceSnapshot struct {
	Generated int
	Queries   []string
	Rows      int
	Sources   []string
}

func NewQueryTrace() *QueryTrace {
	return &QueryTrace{
		sources: make(map[string]struct{}),
	}
}

func (t *QueryTrace) Record(event TraceEvent) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch event.Kind {
	case TraceEventGeneratedQuery:
		t.generated++
	case TraceEventExecutedQuery:
		if event.Query != "" {
			t.queries = append(t.queries, event.Query)
		}
		t.rows += event.Rows
	case TraceEventSources:
		for _, s := range event.Sources {
			if s == "" {
				continue
			}
			t.sources[s] = struct{}{}
		}
	default:
		return
	}
}

func (t *QueryTrace) Snapshot() QueryTraceSnapshot {
	if t == nil {
		return QueryTraceSnapshot{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s := QueryTraceSnapshot{
		Generated: t.generated,
		Queries:   append([]string(nil), t.queries...),
		Rows:      t.rows,
		Sources:   make([]string, 0, len(t.sources)),
	}
	for src := range t.sources {
		s.Sources = append(s.Sources, src)
	}
	sort.Strings(s.Sources)

	return s
}
