package nlu

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAI completes prompts with the OpenAI chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// Options configures the completer backends.
type Options struct {
	Backend    string // "openai" or "compat"
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
}

// NewOpenAI creates an OpenAI completer for apiKey.
func NewOpenAI(apiKey string, opt Options) (*OpenAI, error) {
	if err := CheckKey(apiKey); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(opt.MaxRetries),
	}
	if opt.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(opt.HTTPClient))
	}
	if opt.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(opt.BaseURL))
	}

	model := opt.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
		Model: openai.ChatModel(o.model),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
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

// NewFactory returns a Factory for the configured backend.
func NewFactory(opt Options) Factory {
	return func(apiKey string) (Completer, error) {
		switch opt.Backend {
		case "", "openai":
			return NewOpenAI(apiKey, opt)
		case "compat":
			return NewCompat(apiKey, opt)
		default:
			return nil, fmt.Errorf("nlu: unknown backend %q", opt.Backend)
		}
	}
}
