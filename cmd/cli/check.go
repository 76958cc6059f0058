package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/config"
	"github.com/OFFIS-RIT/papergraph/internal/pipeline"
	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/store/neo4j"

	"github.com/spf13/cobra"
)

const checkTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify configuration, LLM and Neo4j readiness",
	Long: `Validate the configuration, check that the LLM backend is reachable and
serves a usable model, and check that Neo4j accepts connections. Every
failing check prints a hint on how to fix it.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

// CheckItem is the outcome of one readiness check.
type CheckItem struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
	Hint   string `json:"hint,omitempty"`
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status string      `json:"status"`
	Checks []CheckItem `json:"checks"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

var errChecksFailed = errors.New("readiness checks failed")

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	var (
		lister ai.ModelLister
		db     pinger
	)
	if client, err := pipeline.NewAIClient(cfg.AI, cfg.AI.Model); err == nil {
		lister = client
	}
	store, err := neo4j.NewGraphNeo4jStorage(neo4j.NewGraphNeo4jStorageParams{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password,
	})
	if err == nil {
		db = store
		defer store.Close(context.Background())
	}

	result := runChecks(ctx, cfg, lister, db)
	w := cmd.OutOrStdout()
	if jsonOutput {
		writeJSON(w, result)
	} else {
		printChecks(w, result)
	}
	if result.Status != "ok" {
		return errChecksFailed
	}
	return nil
}

// runChecks runs every readiness check. A nil lister or db counts as a
// failed check.
func runChecks(ctx context.Context, cfg config.Config, lister ai.ModelLister, db pinger) CheckResult {
	checks := []CheckItem{
		checkConfig(cfg),
		checkLLM(ctx, cfg, lister),
		checkNeo4j(ctx, cfg, db),
	}

	status := "ok"
	for _, c := range checks {
		if !c.OK {
			status = "failed"
		}
	}
	return CheckResult{Status: status, Checks: checks}
}

func checkConfig(cfg config.Config) CheckItem {
	item := CheckItem{Name: "config"}
	if err := cfg.Validate(); err != nil {
		item.Detail = err.Error()
		item.Hint = "Set the missing variables in the environment or in .env"
		return item
	}
	item.OK = true
	item.Detail = fmt.Sprintf("adapter %s, model %s, chunks %d/%d", cfg.AI.Adapter, cfg.AI.Model, cfg.Chunking.Size, cfg.Chunking.Overlap)
	return item
}

func checkLLM(ctx context.Context, cfg config.Config, lister ai.ModelLister) CheckItem {
	item := CheckItem{Name: "llm"}
	hint := "Start Ollama with: ollama serve, then pull a model: ollama pull llama3.1"
	if cfg.AI.Adapter == "openai" {
		hint = "Check AI_CHAT_URL and AI_CHAT_KEY"
	}

	if lister == nil {
		item.Detail = fmt.Sprintf("cannot create %s client for %q", cfg.AI.Adapter, cfg.AI.URL)
		item.Hint = hint
		return item
	}
	available, err := lister.ListModels(ctx)
	if err != nil {
		item.Detail = fmt.Sprintf("cannot reach %s: %v", cfg.AI.URL, err)
		item.Hint = hint
		return item
	}

	model, err := ai.ResolveModel(cfg.AI.Model, available, cfg.AI.FallbackModels)
	if err != nil {
		item.Detail = err.Error()
		item.Hint = "Pull a model: ollama pull llama3.1 (recommended) or ollama pull mistral"
		return item
	}
	item.OK = true
	item.Detail = fmt.Sprintf("model %s available at %s", model, cfg.AI.URL)
	if !ai.SameModel(model, cfg.AI.Model) {
		item.Detail = fmt.Sprintf("model %s not found, falling back to %s", cfg.AI.Model, model)
	}
	return item
}

func checkNeo4j(ctx context.Context, cfg config.Config, db pinger) CheckItem {
	item := CheckItem{Name: "neo4j"}
	hint := "Start Neo4j (docker run -p 7687:7687 -e NEO4J_AUTH=neo4j/graphrag neo4j:5) and check NEO4J_URI, NEO4J_USERNAME and NEO4J_PASSWORD"

	if db == nil {
		item.Detail = fmt.Sprintf("invalid URI %q", cfg.Neo4j.URI)
		item.Hint = hint
		return item
	}
	if err := db.Ping(ctx); err != nil {
		item.Detail = fmt.Sprintf("cannot connect to %s: %v", cfg.Neo4j.URI, err)
		item.Hint = hint
		return item
	}
	item.OK = true
	item.Detail = "connected to " + cfg.Neo4j.URI
	return item
}

func printChecks(w io.Writer, r CheckResult) {
	for _, c := range r.Checks {
		mark := "OK  "
		if !c.OK {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "  %s %-7s %s\n", mark, c.Name, c.Detail)
		if c.Hint != "" {
			fmt.Fprintf(w, "       %s\n", c.Hint)
		}
	}
}
