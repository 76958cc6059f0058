package ollama

import (
	"net/http"
	"net/url"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:11434"

// GraphOllamaClient implements the ai.GraphAIClient interface using Ollama as the backend.
type GraphOllamaClient struct {
	model       string
	temperature float64

	reqLock *semaphore.Weighted

	ai.MetricsRecorder

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewGraphOllamaClientParams contains configuration options for creating a new GraphOllamaClient.
//
// Model is the resolved chat model. MaxConcurrentRequests bounds the number of
// in-flight requests and defaults to 1.
type NewGraphOllamaClientParams struct {
	Model       string
	Temperature float64

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewGraphOllamaClient creates a new Ollama-based AI client with the specified configuration.
// It connects to the Ollama server at the given BaseURL (or DefaultBaseURL if empty).
func NewGraphOllamaClient(
	params NewGraphOllamaClientParams,
) (*GraphOllamaClient, error) {
	base := params.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	if params.ApiKey != "" {
		headers["Authorization"] = "Bearer " + params.ApiKey
	}
	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: headers,
			rt:      http.DefaultTransport,
		},
	}

	cli := api.NewClient(u, httpClient)

	limit := params.MaxConcurrentRequests
	if limit <= 0 {
		limit = 1
	}

	return &GraphOllamaClient{
		model:       params.Model,
		temperature: params.Temperature,

		reqLock: semaphore.NewWeighted(limit),

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: cli,
	}, nil
}

// Model returns the chat model used when no per-request model is given.
func (c *GraphOllamaClient) Model() string {
	return c.model
}
