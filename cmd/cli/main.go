// Command papergraph ingests research papers into a Neo4j knowledge graph
// and answers questions over it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/config"
	"github.com/OFFIS-RIT/papergraph/internal/pipeline"
	"github.com/OFFIS-RIT/papergraph/internal/util"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
	"github.com/OFFIS-RIT/papergraph/pkg/logger/console"

	"github.com/spf13/cobra"
)

var (
	cfg         config.Config
	jsonOutput  bool
	datasetName string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(rootCmd, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "papergraph",
	Short: "Research paper knowledge graph assistant",
	Long: `papergraph extracts entities and relations from research papers with an
LLM, stores them in one Neo4j database per dataset and answers questions
over the stored graph.

Settings are read from the environment and an optional .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		util.LoadEnv()
		cfg = config.Load()
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug: cfg.Debug,
			JSON:  cfg.LogFormat == "json",
		}))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVarP(&datasetName, "dataset", "d", "", "Dataset to use (default $DEFAULT_DATABASE)")
}

// dataset returns the dataset named on the command line or the configured
// default.
func dataset() string {
	if datasetName != "" {
		return datasetName
	}
	return cfg.DefaultDatabase
}

// openPipeline validates the configuration and builds the pipeline. The
// returned function releases the database driver.
func openPipeline(ctx context.Context) (*pipeline.Pipeline, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	p, closeStore, err := pipeline.Setup(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return p, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := closeStore(ctx); err != nil {
			logger.Warn("Failed to close Neo4j driver", "err", err)
		}
	}, nil
}
