// Package voice turns one microphone capture into a classified utterance.
package voice

import (
	"context"
	"errors"
	log "log/slog"
	"regexp"
	"strings"
	"sync"

	"voicebot/internal/convo"
	"voicebot/internal/vad"
)

// Recorder captures one phrase of 16 kHz mono PCM. It returns
// vad.ErrWaitTimeout when nobody started speaking in time.
type Recorder interface {
	Record(ctx context.Context) ([]float32, error)
}

// Transcriber converts PCM to text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

// Cue plays the "I'm listening" sound.
type Cue interface {
	Play(ctx context.Context) error
}

// whisper marks non-speech as [BLANK_AUDIO], (music) and the like.
var annotationRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

// Listener implements convo.Listener. The microphone is a single device, so
// concurrent Listen calls are serialized.
type Listener struct {
	rec    Recorder
	stt    Transcriber
	cue    Cue
	logger *log.Logger

	mu sync.Mutex
}

// NewListener creates a listener. cue may be nil.
func NewListener(rec Recorder, stt Transcriber, cue Cue, logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.Default()
	}
	return &Listener{rec: rec, stt: stt, cue: cue, logger: logger.With("component", "voice")}
}

func (l *Listener) Listen(ctx context.Context) convo.Utterance {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return convo.Missed(convo.ServiceError, err)
	}

	if l.cue != nil {
		if err := l.cue.Play(ctx); err != nil {
			l.logger.Debug("Cue failed", "err", err)
		}
	}

	pcm, err := l.rec.Record(ctx)
	switch {
	case errors.Is(err, vad.ErrWaitTimeout):
		return convo.Missed(convo.Timeout, err)
	case err != nil:
		l.logger.Warn("Recording failed", "err", err)
		return convo.Missed(convo.ServiceError, err)
	case len(pcm) == 0:
		return convo.Missed(convo.NoSpeech, nil)
	}

	text, err := l.stt.Transcribe(ctx, pcm)
	if err != nil {
		l.logger.Warn("Transcription failed", "err", err)
		return convo.Missed(convo.ServiceError, err)
	}

	text = Clean(text)
	if text == "" {
		return convo.Missed(convo.NoSpeech, nil)
	}
	return convo.Said(text)
}

// Clean strips non-speech annotations and collapses whitespace.
func Clean(text string) string {
	text = annotationRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

var _ convo.Listener = (*Listener)(nil)
