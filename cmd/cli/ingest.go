package main

import (
	"fmt"
	"io"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/pipeline"
	"github.com/OFFIS-RIT/papergraph/pkg/loader"

	"github.com/spf13/cobra"
)

var ingestClear bool

func init() {
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "Delete the existing graph of the dataset before writing")
	rootCmd.AddCommand(ingestCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file or URL>...",
	Short: "Extract a knowledge graph from papers into a dataset",
	Long: `Load each paper, split it into chunks, extract entities and relations
with the LLM and merge them into the dataset's graph database.

Examples:
  papergraph ingest -d transformers attention.pdf bert.pdf
  papergraph ingest -d transformers --clear https://arxiv.org/abs/1706.03762`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, closeFn, err := openPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	files := make([]loader.PaperFile, 0, len(args))
	for _, arg := range args {
		files = append(files, loader.NewPaperFile(loader.NewPaperFileParams{FilePath: arg}))
	}

	report, err := p.Ingest(ctx, pipeline.IngestRequest{
		Dataset:       dataset(),
		Files:         files,
		ClearExisting: ingestClear,
	})
	if report != nil {
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), report)
		} else {
			printIngestReport(cmd.OutOrStdout(), report)
		}
	}
	return err
}

func printIngestReport(w io.Writer, r *pipeline.IngestReport) {
	fmt.Fprintf(w, "Dataset %q (database %s)\n\n", r.Dataset, r.Database)
	for _, f := range r.Files {
		if f.Error != "" {
			fmt.Fprintf(w, "  SKIP %-30s %s\n", f.Paper, f.Error)
			continue
		}
		fmt.Fprintf(w, "  OK   %-30s %d chunks, %d nodes, %d relationships\n", f.Paper, f.Chunks, f.Nodes, f.Relationships)
	}
	fmt.Fprintf(w, "\n%d of %d papers stored: %d nodes, %d relationships in %s\n",
		r.Processed(), len(r.Files), r.Nodes, r.Relationships, r.Duration.Round(time.Millisecond))
	if len(r.Summary.NodeTypes) > 0 {
		fmt.Fprintf(w, "Node types: %v\n", r.Summary.NodeTypes)
	}
	if len(r.Summary.RelationshipTypes) > 0 {
		fmt.Fprintf(w, "Relationship types: %v\n", r.Summary.RelationshipTypes)
	}
}
