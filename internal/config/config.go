// Package config reads the daemon's flags, .env file and environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"voicebot/internal/ipc"
	"voicebot/internal/vad"
)

// EnvPrefix prefixes the environment fallback of every flag, so --max-retries
// reads VOICEBOT_MAX_RETRIES when not given.
const EnvPrefix = "VOICEBOT_"

type Config struct {
	EnvFile  string
	LogLevel string
	Listen   string
	Proxy    string
	Socket   string

	APIKey  string
	LLM     string
	Model   string
	BaseURL string

	STT          string
	WhisperModel string
	Language     string

	TTS   string
	Voice string
	Cue   string
	Duck  bool

	InputFiles    []string
	MaxRetries    int
	ListenTimeout time.Duration
	PhraseLimit   time.Duration
	ExitOnEnd     bool
}

// Load parses args (without the program name).
func Load(args []string) (Config, error) {
	var c Config

	f := cli.NewFlagSet("voicebot", cli.ContinueOnError)
	f.StringVarP(&c.EnvFile, "env", "e", ".env", "Env file path")
	f.StringVarP(&c.LogLevel, "log", "l", "info", "Log level: debug, info, warn, error")
	f.StringVar(&c.Listen, "listen", ":8000", "Chat server address")
	f.StringVarP(&c.Proxy, "proxy", "p", "", "SOCKS5 proxy address for API calls")
	f.StringVar(&c.Socket, "socket", ipc.DefaultSocketPath, "Control socket path")

	f.StringVar(&c.LLM, "llm", "openai", "LLM client: openai or compat")
	f.StringVar(&c.Model, "model", "", "Chat completion model")
	f.StringVar(&c.BaseURL, "base-url", "", "Base URL of an OpenAI compatible API")

	f.StringVar(&c.STT, "stt", "whisper", "Transcriber: whisper or openai")
	f.StringVar(&c.WhisperModel, "whisper-model", "models/ggml-base.en.bin", "Whisper model path")
	f.StringVar(&c.Language, "language", "en", "Transcription language")

	f.StringVar(&c.TTS, "tts", "espeak", "Speech: espeak, openai or none")
	f.StringVar(&c.Voice, "voice", "", "Voice name (espeak language or OpenAI voice)")
	f.StringVar(&c.Cue, "cue", "", "Sound played before listening (mp3 or wav)")
	f.BoolVar(&c.Duck, "duck", false, "Lower other applications while speaking")

	f.StringSliceVar(&c.InputFiles, "input-file", nil, "Audio files to use instead of the microphone")
	f.IntVar(&c.MaxRetries, "max-retries", 3, "Failed transcriptions before giving up")
	f.DurationVar(&c.ListenTimeout, "listen-timeout", vad.DefaultStartTimeout, "Time allowed for speech to start")
	f.DurationVar(&c.PhraseLimit, "phrase-limit", vad.DefaultPhraseLimit, "Maximum phrase length")
	f.BoolVar(&c.ExitOnEnd, "exit-on-end", true, "Exit when a conversation ends by itself")

	if err := f.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(c.EnvFile); err != nil {
		if f.Changed("env") || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", c.EnvFile, err)
		}
	}

	var envErr error
	f.VisitAll(func(fl *cli.Flag) {
		if fl.Changed || envErr != nil {
			return
		}
		name := EnvPrefix + strings.ToUpper(strings.ReplaceAll(fl.Name, "-", "_"))
		if v, ok := os.LookupEnv(name); ok {
			if err := f.Set(fl.Name, v); err != nil {
				envErr = fmt.Errorf("%s: %w", name, err)
			}
		}
	})
	if envErr != nil {
		return Config{}, envErr
	}

	c.APIKey = os.Getenv("OPENAI_API_KEY")

	return c, c.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if !oneOf(c.LLM, "openai", "compat") {
		errs = append(errs, fmt.Errorf("--llm: unknown client %q", c.LLM))
	}
	if !oneOf(c.STT, "whisper", "openai") {
		errs = append(errs, fmt.Errorf("--stt: unknown transcriber %q", c.STT))
	}
	if !oneOf(c.TTS, "espeak", "openai", "none") {
		errs = append(errs, fmt.Errorf("--tts: unknown speech engine %q", c.TTS))
	}
	if c.MaxRetries < 1 {
		errs = append(errs, errors.New("--max-retries must be at least 1"))
	}
	if c.STT == "openai" && c.APIKey == "" {
		errs = append(errs, errors.New("--stt openai needs OPENAI_API_KEY"))
	}
	if c.TTS == "openai" && c.APIKey == "" {
		errs = append(errs, errors.New("--tts openai needs OPENAI_API_KEY"))
	}
	return errors.Join(errs...)
}

// Limits returns the listening limits derived from the flags.
func (c Config) Limits() vad.Limits {
	l := vad.DefaultLimits()
	l.StartTimeout = c.ListenTimeout
	l.PhraseLimit = c.PhraseLimit
	return l
}

func oneOf(v string, opts ...string) bool { return slices.Contains(opts, v) }
