package answer

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// GeminiCompleter sends prompts to the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
}

func NewGeminiCompleter(ctx context.Context, apiKey string, httpOptions genai.HTTPOptions) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOptions,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	return &GeminiCompleter{client: client}, nil
}

func (c *GeminiCompleter) Name() string {
	return "gemini"
}

func (c *GeminiCompleter) Complete(ctx context.Context, prompt Prompt) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, prompt.Model, genai.Text(prompt.User), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, ""),
		MaxOutputTokens:   int32(prompt.MaxTokens),
	})
	if err != nil {
		return "", err
	}

	text := result.Text()
	if text == "" {
		return "", errors.New("empty response from Gemini")
	}
	return text, nil
}
