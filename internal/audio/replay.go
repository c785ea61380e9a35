package audio

import (
	"context"
	"sync"
	"time"

	"voicebot/internal/vad"
	"voicebot/pkg/audioconv"
)

// Replay stands in for the microphone: each Record returns the next file,
// and once the files run out every Record waits Idle and reports that
// nobody spoke.
type Replay struct {
	Idle time.Duration

	mu    sync.Mutex
	files []string
}

func NewReplay(idle time.Duration, files ...string) *Replay {
	return &Replay{Idle: idle, files: append([]string(nil), files...)}
}

func (r *Replay) Record(ctx context.Context) ([]float32, error) {
	r.mu.Lock()
	var next string
	if len(r.files) > 0 {
		next, r.files = r.files[0], r.files[1:]
	}
	r.mu.Unlock()

	if next == "" {
		t := time.NewTimer(r.Idle)
		defer t.Stop()
		select {
		case <-t.C:
			return nil, vad.ErrWaitTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return audioconv.DecodeFile(ctx, next, audioconv.Options{
		MaxSamples: int(vad.DefaultPhraseLimit.Seconds()) * audioconv.SampleRate,
	})
}
