// Package audio talks to the sound devices: microphone capture, playback and
// volume ducking of other applications.
package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"voicebot/internal/vad"
)

const (
	SampleRate = 16000
	FrameSize  = 320 // 20ms
)

var (
	paMu   sync.Mutex
	paRefs int
)

// Init initializes portaudio. Calls nest; every Init needs a Terminate.
func Init() error {
	paMu.Lock()
	defer paMu.Unlock()
	if paRefs == 0 {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("portaudio init: %w", err)
		}
	}
	paRefs++
	return nil
}

func Terminate() {
	paMu.Lock()
	defer paMu.Unlock()
	if paRefs == 0 {
		return
	}
	paRefs--
	if paRefs == 0 {
		_ = portaudio.Terminate()
	}
}

// Recorder captures one phrase from the default input device.
type Recorder struct {
	limits vad.Limits
}

func NewRecorder(limits vad.Limits) (*Recorder, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return &Recorder{limits: limits}, nil
}

func (r *Recorder) Close() { Terminate() }

// Record opens the stream, waits for speech and returns the phrase. It
// returns vad.ErrWaitTimeout when nobody spoke within the start timeout.
func (r *Recorder) Record(ctx context.Context) ([]float32, error) {
	buf := make([]float32, FrameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input: %w", err)
	}
	defer stream.Stop()

	seg := vad.NewSegmenter(r.limits, SampleRate, FrameSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}

		switch seg.Feed(buf) {
		case vad.Done:
			return seg.Samples(), nil
		case vad.TimedOut:
			return nil, vad.ErrWaitTimeout
		}
	}
}
