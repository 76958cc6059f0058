package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/papergraph/internal/config"
)

type staticLister struct {
	models []string
	err    error
}

func (l staticLister) ListModels(ctx context.Context) ([]string, error) { return l.models, l.err }

type staticPinger struct{ err error }

func (p staticPinger) Ping(ctx context.Context) error { return p.err }

func validConfig() config.Config {
	return config.Config{
		Neo4j:    config.Neo4j{URI: "bolt://localhost:7687", Username: "neo4j", Password: "graphrag"},
		AI:       config.AI{Adapter: "ollama", URL: "http://localhost:11434", Model: "llama3.1:latest", FallbackModels: config.DefaultFallbackModels},
		Chunking: config.Chunking{Size: 10000, Overlap: 1000},
		Storage:  config.Storage{Backend: "local"},
	}
}

func TestRunChecks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		lister staticLister
		db     pinger
		failed []string
	}{
		{
			name:   "AllReady",
			lister: staticLister{models: []string{"llama3.1:latest"}},
			db:     staticPinger{},
		},
		{
			name:   "FallbackModelIsReady",
			lister: staticLister{models: []string{"mistral:latest"}},
			db:     staticPinger{},
		},
		{
			name:   "NoModel",
			lister: staticLister{models: []string{"phi3:latest"}},
			db:     staticPinger{},
			failed: []string{"llm"},
		},
		{
			name:   "LLMDown",
			lister: staticLister{err: errors.New("connection refused")},
			db:     staticPinger{},
			failed: []string{"llm"},
		},
		{
			name:   "Neo4jDown",
			lister: staticLister{models: []string{"llama3.1:latest"}},
			db:     staticPinger{err: errors.New("connection refused")},
			failed: []string{"neo4j"},
		},
		{
			name:   "NoDriver",
			lister: staticLister{models: []string{"llama3.1:latest"}},
			failed: []string{"neo4j"},
		},
		{
			name:   "BadConfig",
			mutate: func(c *config.Config) { c.Neo4j.Password = "" },
			lister: staticLister{models: []string{"llama3.1:latest"}},
			db:     staticPinger{},
			failed: []string{"config"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			if tc.mutate != nil {
				tc.mutate(&cfg)
			}
			res := runChecks(context.Background(), cfg, tc.lister, tc.db)

			var failed []string
			for _, c := range res.Checks {
				if !c.OK {
					failed = append(failed, c.Name)
					if c.Hint == "" {
						t.Fatalf("failed check %s has no hint", c.Name)
					}
				}
			}
			if strings.Join(failed, ",") != strings.Join(tc.failed, ",") {
				t.Fatalf("expected failed checks %v, got %v", tc.failed, failed)
			}
			wantStatus := "ok"
			if len(tc.failed) > 0 {
				wantStatus = "failed"
			}
			if res.Status != wantStatus {
				t.Fatalf("expected status %s, got %s", wantStatus, res.Status)
			}
		})
	}
}

func TestRunChecks_ReportsFallback(t *testing.T) {
	res := runChecks(context.Background(), validConfig(), staticLister{models: []string{"mistral:latest"}}, staticPinger{})
	if !strings.Contains(res.Checks[1].Detail, "falling back to mistral") {
		t.Fatalf("expected fallback to be reported, got %q", res.Checks[1].Detail)
	}
}

func TestPrintChecks(t *testing.T) {
	var buf bytes.Buffer
	printChecks(&buf, CheckResult{Status: "failed", Checks: []CheckItem{
		{Name: "config", OK: true, Detail: "fine"},
		{Name: "neo4j", Detail: "cannot connect", Hint: "start it"},
	}})
	out := buf.String()
	if !strings.Contains(out, "OK   config") || !strings.Contains(out, "FAIL neo4j") || !strings.Contains(out, "start it") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPrintList(t *testing.T) {
	var buf bytes.Buffer
	jsonOutput = true
	defer func() { jsonOutput = false }()

	if err := printList(&buf, "papers", nil, "none"); err != nil {
		t.Fatalf("printList: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "{\n  \"papers\": []\n}" {
		t.Fatalf("unexpected JSON %q", buf.String())
	}
}
