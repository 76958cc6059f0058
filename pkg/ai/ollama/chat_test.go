package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"
)

type fakeServer struct {
	mu       sync.Mutex
	requests []map[string]any
	reply    string
	auth     string
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		f.mu.Lock()
		f.requests = append(f.requests, body)
		f.auth = r.Header.Get("Authorization")
		reply := f.reply
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/x-ndjson")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":             body["model"],
			"message":           map[string]any{"role": "assistant", "content": reply},
			"done":              true,
			"prompt_eval_count": 12,
			"eval_count":        8,
			"total_duration":    2_000_000_000,
		})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.1:latest","model":"llama3.1:latest"},{"name":"mistral:latest","model":"mistral:latest"}]}`))
	})
	return mux
}

func newTestClient(t *testing.T, reply string) (*GraphOllamaClient, *fakeServer) {
	t.Helper()
	fake := &fakeServer{reply: reply}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	c, err := NewGraphOllamaClient(NewGraphOllamaClientParams{
		Model:   "llama3.1:latest",
		BaseURL: srv.URL,
		ApiKey:  "secret",
	})
	if err != nil {
		t.Fatalf("NewGraphOllamaClient: %v", err)
	}
	return c, fake
}

func stubTokens(t *testing.T, n int) {
	t.Helper()
	prev := countTokens
	countTokens = func(string) int { return n }
	t.Cleanup(func() { countTokens = prev })
}

func TestGenerateCompletion(t *testing.T) {
	stubTokens(t, 10)
	c, fake := newTestClient(t, "The authors are Vaswani et al.")

	got, err := c.GenerateCompletion(context.Background(), "Who wrote it?", ai.WithSystemPrompts("be brief"))
	if err != nil {
		t.Fatalf("GenerateCompletion: %v", err)
	}
	if got != "The authors are Vaswani et al." {
		t.Fatalf("unexpected answer %q", got)
	}

	req := fake.requests[0]
	if req["model"] != "llama3.1:latest" {
		t.Fatalf("expected configured model, got %v", req["model"])
	}
	msgs := req["messages"].([]any)
	if len(msgs) != 2 || msgs[0].(map[string]any)["role"] != "system" {
		t.Fatalf("expected system + user message, got %v", msgs)
	}
	opts := req["options"].(map[string]any)
	if _, ok := opts["num_ctx"]; ok {
		t.Fatalf("num_ctx must not be set for short prompts")
	}
	if fake.auth != "Bearer secret" {
		t.Fatalf("expected bearer header, got %q", fake.auth)
	}

	m := c.GetMetrics()
	if m.InputTokens != 12 || m.OutputTokens != 8 || m.TotalTokens != 20 || m.Requests != 1 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if m.DurationMs != 2000 || m.TokenPerSecond != 10 {
		t.Fatalf("unexpected timing metrics %+v", m)
	}

	c.ResetMetrics()
	if c.GetMetrics() != (ai.ModelMetrics{}) {
		t.Fatalf("expected metrics to be reset")
	}
}

func TestGenerateCompletion_SizesContextWindow(t *testing.T) {
	stubTokens(t, 5000)
	c, fake := newTestClient(t, "ok")

	if _, err := c.GenerateCompletion(context.Background(), "long prompt"); err != nil {
		t.Fatalf("GenerateCompletion: %v", err)
	}
	opts := fake.requests[0]["options"].(map[string]any)
	if opts["num_ctx"] != float64(5200) {
		t.Fatalf("expected num_ctx 5200, got %v", opts["num_ctx"])
	}
}

func TestGenerateCompletionWithFormat(t *testing.T) {
	stubTokens(t, 10)
	type payload struct {
		Nodes []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"nodes"`
	}

	tests := []struct {
		name  string
		reply string
		want  ai.ParseOutcome
		nodes int
	}{
		{"valid", `{"nodes":[{"id":"BERT","type":"Method"}]}`, ai.ParseParsed, 1},
		{"repairable", `{"nodes":[{"id":"BERT","type":"Method"},]`, ai.ParseRepaired, 1},
		{"garbage", `I could not find anything.`, ai.ParseFailed, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, fake := newTestClient(t, tc.reply)
			var out payload
			res, err := c.GenerateCompletionWithFormat(context.Background(), "graph", "graph", "extract", &out)
			if err != nil {
				t.Fatalf("unexpected transport error: %v", err)
			}
			if res.Outcome != tc.want {
				t.Fatalf("outcome = %s, want %s", res.Outcome, tc.want)
			}
			if len(out.Nodes) != tc.nodes {
				t.Fatalf("nodes = %d, want %d", len(out.Nodes), tc.nodes)
			}
			format, ok := fake.requests[0]["format"].(map[string]any)
			if !ok || format["properties"] == nil {
				t.Fatalf("expected a JSON schema format, got %v", fake.requests[0]["format"])
			}
		})
	}
}

func TestGenerateCompletionWithFormat_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewGraphOllamaClient(NewGraphOllamaClientParams{Model: "missing", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGraphOllamaClient: %v", err)
	}
	stubTokens(t, 10)

	var out map[string]any
	res, err := c.GenerateCompletionWithFormat(context.Background(), "graph", "graph", "extract", &out)
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if res.OK() {
		t.Fatalf("expected failed outcome on transport error")
	}
}

func TestListModels(t *testing.T) {
	c, _ := newTestClient(t, "")
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0] != "llama3.1:latest" || models[1] != "mistral:latest" {
		t.Fatalf("unexpected models %v", models)
	}
}

func TestNewGraphOllamaClient_DefaultURL(t *testing.T) {
	c, err := NewGraphOllamaClient(NewGraphOllamaClientParams{Model: "llama3.1"})
	if err != nil {
		t.Fatalf("NewGraphOllamaClient: %v", err)
	}
	if c.baseURL.String() != DefaultBaseURL {
		t.Fatalf("expected default base URL, got %s", c.baseURL)
	}
}
