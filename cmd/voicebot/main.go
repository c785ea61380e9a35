package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicebot/internal/audio"
	"voicebot/internal/chat"
	"voicebot/internal/config"
	"voicebot/internal/convo"
	"voicebot/internal/depcheck"
	"voicebot/internal/ipc"
	"voicebot/internal/logging"
	"voicebot/internal/nlu"
	"voicebot/internal/notify"
	"voicebot/internal/proxy"
	"voicebot/internal/tts"
	"voicebot/internal/tts/espeak"
	"voicebot/internal/voice"
	"voicebot/pkg/stt"
)

// checkDeps verifies the external programs the daemon shells out to.
var checkDeps = depcheck.FFmpeg

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, false)
	log.SetDefault(logger)
	if err != nil {
		log.Warn("Falling back to info", "err", err)
	}

	log.Info("Booting up")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := checkDeps(ctx); err != nil {
		log.Error("Dependency check failed", "err", err)
		return 1
	}

	httpClient, err := proxy.NewHTTPClient(cfg.Proxy, 0)
	if err != nil {
		log.Error("Failed to set up proxy", "proxy", cfg.Proxy, "err", err)
		return 1
	}

	listener, closeListener, err := newListener(cfg, httpClient)
	if err != nil {
		log.Error("Failed to init listening", "err", err)
		return 1
	}
	defer closeListener()
	log.Debug("Loaded listener", "stt", cfg.STT, "replay", len(cfg.InputFiles) > 0)

	speaker, closeSpeaker, err := newSpeaker(cfg, httpClient)
	if err != nil {
		log.Error("Failed to init speech", "err", err)
		return 1
	}
	defer closeSpeaker()
	log.Debug("Loaded speaker", "tts", cfg.TTS)

	factory := nlu.NewFactory(nlu.Options{
		Backend:    cfg.LLM,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		HTTPClient: httpClient,
		MaxRetries: 2,
	})
	router := nlu.NewRouter(nil, logger)

	naturalEnd := make(chan convo.EndReason, 1)
	newSession := func(d convo.Display) *convo.Session {
		return convo.New(convo.Deps{
			Display:  d,
			Listener: listener,
			Speaker:  speaker,
			Router:   router,
			Factory:  factory,
			Logger:   logger,
		},
			convo.WithMaxRetries(cfg.MaxRetries),
			convo.WithAPIKey(cfg.APIKey),
			convo.WithOnEnd(func(_ *convo.Session, r convo.EndReason) {
				if r.Natural() && cfg.ExitOnEnd {
					select {
					case naturalEnd <- r:
					default:
					}
				}
			}),
		)
	}

	server := chat.NewServer(newSession, logger)

	ctl, err := ipc.Listen(cfg.Socket, ipc.SessionHandler(server.Sessions), logger)
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		return 1
	}
	defer ctl.Close()
	go func() {
		if err := ctl.Serve(); err != nil {
			log.Error("Control socket stopped", "err", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Listen(cfg.Listen) }()

	log.Info("Boot up - successful", "chat", "http://"+displayAddr(cfg.Listen))

	code := waitExit(ctx, naturalEnd, serveErr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Chat shutdown", "err", err)
	}
	return code
}

// waitExit blocks until a signal, a natural end of a conversation or a chat
// server failure and returns the process exit code.
func waitExit(ctx context.Context, naturalEnd <-chan convo.EndReason, serveErr <-chan error) int {
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case r := <-naturalEnd:
		log.Info("Conversation over, exiting", "reason", r)
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Chat server failed", "err", err)
			return 1
		}
	}
	return 0
}

func newListener(cfg config.Config, httpClient *http.Client) (*voice.Listener, func(), error) {
	var (
		tr      voice.Transcriber
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.STT {
	case "openai":
		o, err := stt.NewOpenAI(stt.OpenAIConfig{
			APIKey:     cfg.APIKey,
			Language:   cfg.Language,
			HTTPClient: httpClient,
			MaxRetries: 2,
		})
		if err != nil {
			return nil, nil, err
		}
		tr = o
	default:
		w, err := stt.NewWhisper(cfg.WhisperModel, stt.Options{
			Language:      cfg.Language,
			InitialPrompt: "Voicebot",
		})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = w.Close() })
		tr = w
	}

	var rec voice.Recorder
	if len(cfg.InputFiles) > 0 {
		rec = audio.NewReplay(cfg.ListenTimeout, cfg.InputFiles...)
	} else {
		mic, err := audio.NewRecorder(cfg.Limits())
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, mic.Close)
		rec = mic
	}

	var cue voice.Cue
	if cfg.Cue != "" {
		b, err := notify.NewBeep(cfg.Cue, audio.NewPlayer())
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		cue = b
	}

	return voice.NewListener(rec, tr, cue, log.Default()), closeAll, nil
}

func newSpeaker(cfg config.Config, httpClient *http.Client) (tts.Speaker, func(), error) {
	var (
		base    tts.Speaker
		closeFn = func() {}
	)

	switch cfg.TTS {
	case "none":
		base = tts.Nop{}
	case "openai":
		o, err := tts.NewOpenAI(tts.OpenAIConfig{
			APIKey:     cfg.APIKey,
			Voice:      cfg.Voice,
			HTTPClient: httpClient,
			MaxRetries: 2,
			Logger:     log.Default(),
		}, audio.NewPlayer())
		if err != nil {
			return nil, nil, err
		}
		base = o
	default:
		e, err := espeak.New(cfg.Voice, 0, 0)
		if err != nil {
			return nil, nil, err
		}
		base = e
		closeFn = func() { _ = e.Close() }
	}

	if cfg.Duck {
		base = &tts.Ducked{
			Speaker: base,
			Ducker:  audio.NewDucker([]string{"voicebot", "espeak-ng"}, 10),
			Factor:  0.3,
			Fade:    200 * time.Millisecond,
			Logger:  log.Default(),
		}
	}

	return tts.NewSerial(base), closeFn, nil
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
