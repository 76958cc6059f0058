package ai

import (
	"context"
)

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
}

// ModelMetrics contains performance metrics from AI model operations.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	Requests       int     `json:"requests"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// GenerateOption is a functional option for configuring AI generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
// Research answers default to 0 so repeated questions yield the same answer.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// ParseOutcome classifies how a structured model response was decoded.
type ParseOutcome int

const (
	// ParseParsed means the response was valid JSON, possibly wrapped in a
	// string or a fenced code block.
	ParseParsed ParseOutcome = iota
	// ParseRepaired means the response only decoded after JSON repair.
	ParseRepaired
	// ParseFailed means no strategy produced a value. The target is left zeroed.
	ParseFailed
)

func (o ParseOutcome) String() string {
	switch o {
	case ParseParsed:
		return "parsed"
	case ParseRepaired:
		return "repaired"
	default:
		return "failed"
	}
}

// ParseResult reports the outcome of decoding a structured response.
// Raw is the unmodified model output and Err is set when Outcome is ParseFailed.
type ParseResult struct {
	Outcome ParseOutcome
	Raw     string
	Err     error
}

// OK reports whether a value was decoded.
func (r ParseResult) OK() bool {
	return r.Outcome != ParseFailed
}

// ModelLister lists the model names a backend can serve.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// GraphAIClient defines the interface for AI operations used in graph
// construction and querying.
//
// GenerateCompletionWithFormat only returns an error for transport failures.
// Undecodable output is reported through the ParseResult so callers can
// degrade instead of aborting a batch.
type GraphAIClient interface {
	GenerateCompletion(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) (ParseResult, error)

	ModelLister

	LoadModel(ctx context.Context, opts ...GenerateOption) error
	ResetMetrics()
	GetMetrics() ModelMetrics
}
