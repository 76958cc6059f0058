package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/graph"
	"github.com/OFFIS-RIT/papergraph/pkg/leaselock"
	"github.com/OFFIS-RIT/papergraph/pkg/loader"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
	"github.com/OFFIS-RIT/papergraph/pkg/store"
)

// IngestRequest names the dataset and the source documents to add to it.
// ClearExisting empties the namespace once, before the first write.
type IngestRequest struct {
	Dataset       string
	Files         []loader.PaperFile
	ClearExisting bool
}

// FileReport is the outcome for one source document. Error is set when the
// document was skipped.
type FileReport struct {
	Paper         string `json:"paper"`
	Path          string `json:"path"`
	Chunks        int    `json:"chunks"`
	Nodes         int    `json:"nodes"`
	Relationships int    `json:"relationships"`
	Error         string `json:"error,omitempty"`
}

type IngestReport struct {
	Dataset       string        `json:"dataset"`
	Database      string        `json:"database"`
	Files         []FileReport  `json:"files"`
	Nodes         int           `json:"nodes"`
	Relationships int           `json:"relationships"`
	Papers        int           `json:"papers"`
	Summary       graph.Summary `json:"summary"`
	Duration      time.Duration `json:"duration"`
}

// Processed counts the files that reached the graph.
func (r IngestReport) Processed() int {
	n := 0
	for _, f := range r.Files {
		if f.Error == "" {
			n++
		}
	}
	return n
}

var (
	ingestLease = leaselock.Options{
		TTL:          2 * time.Minute,
		Wait:         true,
		WaitInterval: time.Second,
		WaitJitter:   500 * time.Millisecond,
		TokenPrefix:  "ingest-",
	}
	registryLease = leaselock.Options{
		TTL:          30 * time.Second,
		Wait:         true,
		WaitInterval: 100 * time.Millisecond,
		WaitJitter:   50 * time.Millisecond,
		TokenPrefix:  "registry-",
	}
)

func (p *Pipeline) withLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error {
	if p.locker == nil {
		return fn(ctx)
	}
	return p.locker.WithLease(ctx, key, opts, fn)
}

// Ingest loads, chunks, extracts and stores every file of req into its
// dataset. A file that cannot be loaded or yields no text is reported and
// skipped. A failed write aborts the run and returns the partial report.
//
// Only one process ingests into a namespace at a time.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (*IngestReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	db, err := p.connect(ctx, req.Dataset)
	if err != nil {
		return nil, err
	}

	// without a name the papers are registered under the connected database
	if req.Dataset == "" {
		req.Dataset = db
	}

	report := &IngestReport{Dataset: req.Dataset, Database: db, Files: make([]FileReport, 0, len(req.Files))}
	var allDocs []common.GraphDocument
	err = p.withLease(ctx, "ingest:"+db, ingestLease, func(ctx context.Context) error {
		docs, err := p.ingestFiles(ctx, req, report)
		allDocs = docs
		return err
	})
	if err != nil {
		return report, err
	}

	report.Summary = graph.Summarize(allDocs)
	report.Duration = time.Since(start)
	p.logMetrics(req.Dataset, report.Duration)
	return report, nil
}

func (p *Pipeline) ingestFiles(ctx context.Context, req IngestRequest, report *IngestReport) ([]common.GraphDocument, error) {
	clearFirst := req.ClearExisting
	var allDocs []common.GraphDocument

	for _, file := range req.Files {
		fr := FileReport{Paper: file.PaperName, Path: file.FilePath}

		pages, err := p.loader.LoadPages(ctx, file)
		if err != nil {
			logger.Error("[Pipeline] Failed to load paper", "paper", file.PaperName, "err", err)
			fr.Error = err.Error()
			report.Files = append(report.Files, fr)
			continue
		}

		chunks := p.chunker.ChunkPages(file, pages)
		fr.Chunks = len(chunks)
		if len(chunks) == 0 {
			logger.Warn("[Pipeline] No text found", "paper", file.PaperName)
			fr.Error = "no text extracted"
			report.Files = append(report.Files, fr)
			continue
		}
		if _, err := p.extracted.Save(file.PaperName, chunks); err != nil {
			logger.Warn("[Pipeline] Could not cache extracted content", "paper", file.PaperName, "err", err)
		}

		docs, err := p.graph.Extract(ctx, chunks)
		if err != nil {
			return allDocs, err
		}

		res, err := p.store.Push(ctx, docs, store.PushOptions{ClearExisting: clearFirst})
		if err != nil {
			fr.Error = err.Error()
			report.Files = append(report.Files, fr)
			return allDocs, fmt.Errorf("failed to store graph of %q: %w", file.PaperName, err)
		}
		clearFirst = false
		// the schema seen by the query chain is stale now
		p.answerer = nil

		fr.Nodes = res.Nodes
		fr.Relationships = res.Relationships
		report.Nodes += res.Nodes
		report.Relationships += res.Relationships
		report.Papers += res.Papers
		report.Files = append(report.Files, fr)
		allDocs = append(allDocs, docs...)

		err = p.withLease(ctx, "registry", registryLease, func(ctx context.Context) error {
			_, err := p.registry.Save(req.Dataset, []string{file.PaperName})
			return err
		})
		if err != nil {
			logger.Error("[Pipeline] Could not save graph configuration", "dataset", req.Dataset, "err", err)
		}
		logger.Info("[Pipeline] Processed paper", "paper", file.PaperName, "chunks", len(chunks), "nodes", res.Nodes, "relationships", res.Relationships)
	}
	return allDocs, nil
}
