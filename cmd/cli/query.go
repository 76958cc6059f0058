package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/OFFIS-RIT/papergraph/pkg/query"

	"github.com/spf13/cobra"
)

var queryNoAudit bool

func init() {
	queryCmd.Flags().BoolVar(&queryNoAudit, "no-audit", false, "Omit the provenance line from the answer")
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(summaryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Answer a question from a dataset's graph",
	Long: `Answer a natural-language question from the knowledge graph of a dataset.

Examples:
  papergraph query -d transformers "Who are the authors of the Transformer paper?"
  papergraph query -d transformers --json "Which datasets are used for evaluation?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the research covered by a dataset",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, closeFn, err := openPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	var opts []query.QueryOption
	if queryNoAudit {
		opts = append(opts, query.WithoutAudit())
	}
	resp, err := p.Query(ctx, dataset(), strings.Join(args, " "), opts...)
	if err != nil {
		return err
	}
	return printResponse(cmd.OutOrStdout(), resp)
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, closeFn, err := openPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	resp, err := p.Summary(ctx, dataset())
	if err != nil {
		return err
	}
	return printResponse(cmd.OutOrStdout(), resp)
}

func printResponse(w io.Writer, resp *query.Response) error {
	if jsonOutput {
		return writeJSON(w, resp)
	}
	fmt.Fprintln(w, resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Fprintf(w, "\nSources: %s\n", strings.Join(resp.Sources, ", "))
	}
	return nil
}
