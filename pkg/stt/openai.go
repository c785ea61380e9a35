package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"voicebot/pkg/audioconv"
)

// OpenAIConfig configures the hosted transcription backend.
type OpenAIConfig struct {
	APIKey     string
	Model      string // whisper-1 when empty
	Language   string // ISO-639-1, empty = detect
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
}

// OpenAI transcribes through the OpenAI audio API.
type OpenAI struct {
	client openai.Client
	cfg    OpenAIConfig
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("stt: API key required")
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.AudioModelWhisper1)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{client: openai.NewClient(opts...), cfg: cfg}, nil
}

func (o *OpenAI) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	if len(pcm) == 0 {
		return "", errors.New("no audio samples provided")
	}

	wav, err := audioconv.EncodeWAV(pcm)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "speech.wav", "audio/wav"),
		Model: openai.AudioModel(o.cfg.Model),
	}
	if o.cfg.Language != "" {
		params.Language = openai.String(o.cfg.Language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	return resp.Text, nil
}
