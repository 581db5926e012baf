// Package generation wraps the Azure OpenAI chat completions API behind the
// domain.Generator interface.
package generation

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"talkrag/internal/domain"
)

// Client generates answers with a deployed chat model.
type Client struct {
	api         openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewClient wraps an already-configured OpenAI client.
func NewClient(api openai.Client, model string, maxTokens int, temperature float64) *Client {
	return &Client{api: api, model: model, maxTokens: int64(maxTokens), temperature: temperature}
}

// Generate submits the system instruction and user prompt as a single chat
// turn and returns the completion text.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model:       openai.ChatModel(c.model),
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", &domain.GenerationError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.GenerationError{Err: fmt.Errorf("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}
