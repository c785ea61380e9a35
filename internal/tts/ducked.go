package tts

import (
	"context"
	log "log/slog"
	"time"
)

// Ducker lowers and restores the volume of other audio.
type Ducker interface {
	DuckOthers(ctx context.Context, factor float64, fade time.Duration) error
	UnduckOthers(ctx context.Context, fade time.Duration) error
}

// Ducked lowers other applications while the wrapped speaker talks.
type Ducked struct {
	Speaker Speaker
	Ducker  Ducker
	Factor  float64
	Fade    time.Duration
	Logger  *log.Logger
}

func (d *Ducked) Speak(ctx context.Context, text string) error {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}

	if err := d.Ducker.DuckOthers(ctx, d.Factor, d.Fade); err != nil {
		logger.Warn("Failed to duck", "err", err)
	}
	defer func() {
		// Restore even when ctx was cancelled mid-sentence.
		if err := d.Ducker.UnduckOthers(context.WithoutCancel(ctx), d.Fade); err != nil {
			logger.Warn("Failed to unduck", "err", err)
		}
	}()

	return d.Speaker.Speak(ctx, text)
}

var _ Speaker = (*Ducked)(nil)
