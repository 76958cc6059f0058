package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/OFFIS-RIT/papergraph/internal/util"
	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"golang.org/x/sync/errgroup"
)

type chunkResult struct {
	doc    common.GraphDocument
	parsed ai.ParseResult
}

// Extract returns one GraphDocument per chunk, in chunk order. A chunk whose
// extraction fails contributes an empty document and is logged. The error is
// only set when ctx is cancelled.
//
// All documents of one call share the same GraphMetadata.
func (g *GraphClient) Extract(ctx context.Context, chunks []common.Chunk) ([]common.GraphDocument, error) {
	docs := make([]common.GraphDocument, len(chunks))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelAiRequests)
	for i, chunk := range chunks {
		eg.Go(func() error {
			res, err := util.RetryWithContext(gCtx, g.maxRetries, func(ctx context.Context) (chunkResult, error) {
				doc, parsed, err := g.extractFromChunk(ctx, chunk)
				return chunkResult{doc: doc, parsed: parsed}, err
			})
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				logger.Error("[Extract] LLM request failed", "paper", chunk.Metadata.PaperName, "chunk", chunk.Metadata.ChunkIndex, "err", err)
				docs[i] = emptyDocument()
				return nil
			}

			switch res.parsed.Outcome {
			case ai.ParseFailed:
				logger.Warn("[Extract] Unparseable extraction, using empty graph", "paper", chunk.Metadata.PaperName, "chunk", chunk.Metadata.ChunkIndex, "err", res.parsed.Err)
			case ai.ParseRepaired:
				logger.Debug("[Extract] Repaired extraction output", "paper", chunk.Metadata.PaperName, "chunk", chunk.Metadata.ChunkIndex)
			}
			docs[i] = res.doc
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("extraction cancelled: %w", err)
	}

	meta, err := g.batchMetadata(chunks)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Metadata = meta
	}

	logger.Info("[Extract] Batch done", "batch", meta.BatchID, "chunks", len(chunks), "papers", len(meta.SourcePapers))
	return docs, nil
}

func (g *GraphClient) batchMetadata(chunks []common.Chunk) (common.GraphMetadata, error) {
	id, err := g.newID()
	if err != nil {
		return common.GraphMetadata{}, fmt.Errorf("failed to generate batch id: %w", err)
	}

	seen := make(map[string]struct{})
	papers := make([]string, 0)
	dois := make(map[string]string)
	for _, c := range chunks {
		name := c.Metadata.PaperName
		if _, ok := seen[name]; !ok && name != "" {
			seen[name] = struct{}{}
			papers = append(papers, name)
		}
		if c.Metadata.DOI != "" {
			dois[name] = c.Metadata.DOI
		}
	}
	sort.Strings(papers)
	if len(dois) == 0 {
		dois = nil
	}

	return common.GraphMetadata{
		BatchID:              id,
		SourcePapers:         papers,
		ExtractionTime:       g.now().UTC(),
		TotalChunksProcessed: len(chunks),
		ModelUsed:            g.model,
		PromptType:           PromptType,
		PaperDOIs:            dois,
	}, nil
}
