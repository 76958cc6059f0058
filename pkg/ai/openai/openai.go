package openai

import (
	"github.com/OFFIS-RIT/papergraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// GraphOpenAIClient implements ai.GraphAIClient against the OpenAI API or
// any OpenAI compatible server.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	model       string
	temperature float64

	chatURL string
	chatKey string

	reqLock *semaphore.Weighted

	ai.MetricsRecorder

	ChatClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for creating
// a new GraphOpenAIClient.
//
// Model is the resolved chat model. ChatURL and ChatKey configure the
// chat/completion API endpoint; an empty ChatURL targets the OpenAI API.
type NewGraphOpenAIClientParams struct {
	Model       string
	Temperature float64

	ChatURL string
	ChatKey string

	MaxConcurrentRequests int64
}

// NewGraphOpenAIClient creates and returns a new GraphOpenAIClient configured
// with the provided parameters.
//
// Example:
//
//	client := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		Model:   "gpt-4o-mini",
//		ChatKey: os.Getenv("OPENAI_API_KEY"),
//	})
func NewGraphOpenAIClient(
	params NewGraphOpenAIClientParams,
) *GraphOpenAIClient {
	limit := params.MaxConcurrentRequests
	if limit <= 0 {
		limit = 1
	}

	return &GraphOpenAIClient{
		model:       params.Model,
		temperature: params.Temperature,

		chatURL: params.ChatURL,
		chatKey: params.ChatKey,

		reqLock: semaphore.NewWeighted(limit),

		ChatClient: newOpenaiClient(params.ChatURL, params.ChatKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	options := []option.RequestOption{}
	if apiKey != "" {
		options = append(options, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

// Model returns the chat model used when no per-request model is given.
func (c *GraphOpenAIClient) Model() string {
	return c.model
}
