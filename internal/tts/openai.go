package tts

import (
	"context"
	"errors"
	"io"
	log "log/slog"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Player plays an encoded mp3 stream to the default output device.
type Player interface {
	PlayMP3(ctx context.Context, r io.ReadCloser) error
}

// OpenAIConfig configures the OpenAI speaker.
type OpenAIConfig struct {
	APIKey     string
	Model      string // tts-1 when empty
	Voice      string // alloy when empty
	BaseURL    string // API root, for proxies and tests
	HTTPClient *http.Client
	MaxRetries int
	Logger     *log.Logger
}

// OpenAI synthesizes speech with the OpenAI audio API and plays it.
type OpenAI struct {
	client openai.Client
	model  string
	voice  string
	player Player
	logger *log.Logger
}

// NewOpenAI creates an OpenAI speaker playing through player.
func NewOpenAI(cfg OpenAIConfig, player Player) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("tts: API key required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.SpeechModelTTS1
	}
	if cfg.Voice == "" {
		cfg.Voice = string(openai.AudioSpeechNewParamsVoiceAlloy)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
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

	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		voice:  cfg.Voice,
		player: player,
		logger: cfg.Logger.With("component", "tts.openai"),
	}, nil
}

// Speak returns *openai.Error when the API refuses the request.
func (o *OpenAI) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	start := time.Now()
	resp, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          o.model,
		Voice:          openai.AudioSpeechNewParamsVoice(o.voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return err
	}

	o.logger.Debug("Synthesized", "chars", len(text), "latency", time.Since(start))

	// The player owns and closes the body.
	return o.player.PlayMP3(ctx, resp.Body)
}

var _ Speaker = (*OpenAI)(nil)
