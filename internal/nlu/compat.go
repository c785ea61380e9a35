package nlu

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
)

// Compat talks to OpenAI-compatible servers (Ollama, vLLM, LocalAI) via the
// go-openai client, which tolerates their looser response shapes.
type Compat struct {
	client *goopenai.Client
	model  string
}

// NewCompat creates a completer for an OpenAI-compatible endpoint.
func NewCompat(apiKey string, opt Options) (*Compat, error) {
	if err := CheckKey(apiKey); err != nil {
		return nil, err
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if opt.BaseURL != "" {
		cfg.BaseURL = opt.BaseURL
	}
	if opt.HTTPClient != nil {
		cfg.HTTPClient = opt.HTTPClient
	}

	model := opt.Model
	if model == "" {
		model = DefaultModel
	}

	return &Compat{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (c *Compat) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.System},
			{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", ErrEmptyCompletion
	}

	return content, nil
}
