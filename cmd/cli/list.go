package main

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/papergraph/pkg/registry"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(datasetsCmd)
	rootCmd.AddCommand(papersCmd)
	rootCmd.AddCommand(databasesCmd)
}

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List registered datasets and their papers",
	Long:  `List the datasets recorded in $GRAPH_CONFIG_FILE. No server is contacted.`,
	Args:  cobra.NoArgs,
	RunE:  runDatasets,
}

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "List papers with cached extracted content",
	Long:  `List the papers whose chunks are cached in $EXTRACTED_DIR. No server is contacted.`,
	Args:  cobra.NoArgs,
	RunE:  runPapers,
}

var databasesCmd = &cobra.Command{
	Use:   "databases",
	Short: "List the graph databases on the Neo4j server",
	Args:  cobra.NoArgs,
	RunE:  runDatabases,
}

func runDatasets(cmd *cobra.Command, args []string) error {
	datasets := registry.New(cfg.GraphConfigFile).Load()
	w := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(w, datasets)
	}
	if len(datasets) == 0 {
		fmt.Fprintln(w, "No datasets registered")
		return nil
	}
	for _, d := range datasets {
		fmt.Fprintf(w, "  %-24s %d papers, updated %s\n", d.Name, len(d.Papers), d.UpdatedAt.Format("2006-01-02 15:04"))
		if len(d.Papers) > 0 {
			fmt.Fprintf(w, "    %s\n", strings.Join(d.Papers, ", "))
		}
	}
	return nil
}

func runPapers(cmd *cobra.Command, args []string) error {
	papers, err := registry.NewExtractedStore(cfg.ExtractedDir).ListPapers()
	if err != nil {
		return err
	}
	return printList(cmd.OutOrStdout(), "papers", papers, "No extracted papers")
}

func runDatabases(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, closeFn, err := openPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	dbs, err := p.Databases(ctx)
	if err != nil {
		return err
	}
	return printList(cmd.OutOrStdout(), "databases", dbs, "No user databases")
}
