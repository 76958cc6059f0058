package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(schemaCmd)
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show labels, relationship types and counts of a dataset",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, closeFn, err := openPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := p.Schema(ctx, dataset())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "Database:           %s\n", report.Stats.Database)
	fmt.Fprintf(w, "Query mode:         %s\n", report.Mode)
	fmt.Fprintf(w, "Nodes:              %d\n", report.Stats.Nodes)
	fmt.Fprintf(w, "Relationships:      %d\n", report.Stats.Relationships)
	fmt.Fprintf(w, "Labels:             %s\n", strings.Join(report.Schema.Labels, ", "))
	fmt.Fprintf(w, "Relationship types: %s\n", strings.Join(report.Schema.RelationshipTypes, ", "))
	fmt.Fprintf(w, "Properties:         %s\n", strings.Join(report.Schema.PropertyKeys, ", "))
	return nil
}
