package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/papergraph/pkg/ai"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/openai/openai-go/v3"
)

func (c *GraphOpenAIClient) options(opts []ai.GenerateOption) ai.GenerateOptions {
	options := ai.GenerateOptions{
		Model:       c.model,
		Temperature: c.temperature,
	}
	for _, o := range opts {
		o(&options)
	}
	return options
}

func (c *GraphOpenAIClient) newBody(prompt string, options ai.GenerateOptions) openai.ChatCompletionNewParams {
	msgs := []openai.ChatCompletionMessageParamUnion{}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}
}

func (c *GraphOpenAIClient) complete(ctx context.Context, body openai.ChatCompletionNewParams) (string, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return "", err
	}
	duration := time.Since(start).Milliseconds()

	c.Record(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	})

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response from model")
	}
	return response.Choices[0].Message.Content, nil
}

// GenerateCompletion sends a single-turn prompt to the chat model and
// returns the generated completion as plain text.
//
// Example:
//
//	resp, err := client.GenerateCompletion(ctx, "Summarize this text...")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(resp)
func (c *GraphOpenAIClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	return c.complete(ctx, c.newBody(prompt, c.options(opts)))
}

// GenerateCompletionWithFormat sends a prompt with a JSON schema response
// format derived from out and decodes the reply into out.
//
// Undecodable replies are reported through the returned ParseResult; the
// error is only set when the request itself failed.
func (c *GraphOpenAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) (ai.ParseResult, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      ai.GenerateSchema(out),
		Strict:      openai.Bool(true),
	}

	body := c.newBody(prompt, c.options(opts))
	body.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: schemaParam,
		},
	}

	message, err := c.complete(ctx, body)
	if err != nil {
		return ai.ParseResult{Outcome: ai.ParseFailed, Err: err}, err
	}

	res := ai.ParseStructured(message, out)
	if res.Outcome == ai.ParseRepaired {
		logger.Debug("[OpenAI] Repaired structured output", "name", name)
	}
	return res, nil
}

// ListModels returns the ids of the models served by the endpoint.
func (c *GraphOpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	page, err := c.ChatClient.Models.List(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		names = append(names, m.ID)
	}
	return names, nil
}

// LoadModel is a no-op for OpenAI as models are loaded on-demand.
// It exists to satisfy the GraphAIClient interface.
func (c *GraphOpenAIClient) LoadModel(ctx context.Context, opts ...ai.GenerateOption) error {
	return nil
}
