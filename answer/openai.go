package answer

import (
	"context"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

type chatCompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAICompleter sends prompts to an OpenAI-compatible chat completions
// endpoint.
type OpenAICompleter struct {
	client chatCompletionClient
}

func NewOpenAICompleter(apiKey, baseURL string) *OpenAICompleter {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(clientConfig)}
}

func (c *OpenAICompleter) Name() string {
	return "openai"
}

// Complete reduces API errors to the provider's own message so callers can
// show it verbatim.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt Prompt) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: prompt.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompt.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt.User,
			},
		},
		MaxTokens: prompt.MaxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return "", &ProviderError{Message: apiErr.Message, Err: err}
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion response contained no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
