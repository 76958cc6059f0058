package ollama

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
)

const (
	defaultContext = 4096
	contextReserve = 200
)

var encoding = sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
	return tiktoken.GetEncoding("o200k_base")
})

// countTokens estimates the prompt size for context window sizing.
var countTokens = func(prompt string) int {
	enc, err := encoding()
	if err != nil {
		logger.Debug("[Ollama] Token encoding unavailable", "err", err)
		return 0
	}
	return len(enc.Encode(prompt, nil, nil))
}

func (c *GraphOllamaClient) options(opts []ai.GenerateOption) ai.GenerateOptions {
	options := ai.GenerateOptions{
		Model:       c.model,
		Temperature: c.temperature,
	}
	for _, o := range opts {
		o(&options)
	}
	return options
}

func (c *GraphOllamaClient) newRequest(prompt string, options ai.GenerateOptions) *api.ChatRequest {
	msgs := make([]api.Message, 0, len(options.SystemPrompts)+1)
	for _, sys := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sys})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	// ollama truncates silently beyond num_ctx
	if tokens := contextReserve + countTokens(prompt); tokens > defaultContext {
		req.Options["num_ctx"] = tokens
	}
	return req
}

func (c *GraphOllamaClient) chat(ctx context.Context, req *api.ChatRequest) (string, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	start := time.Now()
	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return "", err
	}

	durationMs := final.Metrics.TotalDuration.Milliseconds()
	if durationMs == 0 {
		durationMs = time.Since(start).Milliseconds()
	}

	c.Record(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   durationMs,
	})

	return final.Message.Content, nil
}

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *GraphOllamaClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	return c.chat(ctx, c.newRequest(prompt, c.options(opts)))
}

// GenerateCompletionWithFormat constrains the reply to the JSON schema of out
// and decodes it. Only transport failures are returned as errors.
func (c *GraphOllamaClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) (ai.ParseResult, error) {
	formatBytes, err := json.Marshal(ai.GenerateSchema(out))
	if err != nil {
		return ai.ParseResult{Outcome: ai.ParseFailed, Err: err}, nil
	}

	req := c.newRequest(prompt, c.options(opts))
	req.Format = json.RawMessage(formatBytes)

	content, err := c.chat(ctx, req)
	if err != nil {
		return ai.ParseResult{Outcome: ai.ParseFailed, Err: err}, err
	}

	res := ai.ParseStructured(content, out)
	if res.Outcome == ai.ParseRepaired {
		logger.Debug("[Ollama] Repaired structured output", "name", name)
	}
	return res, nil
}

// ListModels returns the names of the models installed on the server.
func (c *GraphOllamaClient) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.Client.List(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		names = append(names, name)
	}
	return names, nil
}

// LoadModel preloads a model into memory to reduce latency on subsequent requests.
func (c *GraphOllamaClient) LoadModel(ctx context.Context, opts ...ai.GenerateOption) error {
	options := c.options(opts)

	req := &api.ChatRequest{
		Model: options.Model,
	}

	return c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		return nil
	})
}
