package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// OutputRate is the rate the speaker is opened at; streams are resampled.
const OutputRate beep.SampleRate = 44100

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(OutputRate, OutputRate.N(time.Second/10))
	})
	return speakerErr
}

// Player plays encoded audio on the default output device, one stream at a
// time.
type Player struct {
	mu sync.Mutex
}

func NewPlayer() *Player { return &Player{} }

// PlayMP3 decodes and plays r, blocking until playback ends or ctx is done.
// r is closed.
func (p *Player) PlayMP3(ctx context.Context, r io.ReadCloser) error {
	s, format, err := mp3.Decode(r)
	if err != nil {
		r.Close()
		return fmt.Errorf("decode mp3: %w", err)
	}
	defer s.Close()
	return p.play(ctx, s, format)
}

// PlayFile plays a wav or mp3 file.
func (p *Player) PlayFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".wav":
		s, format, err = wav.Decode(f)
	default:
		err = fmt.Errorf("unsupported cue format %q", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	defer s.Close()

	return p.play(ctx, s, format)
}

func (p *Player) play(ctx context.Context, s beep.Streamer, format beep.Format) error {
	if err := initSpeaker(); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if format.SampleRate != OutputRate {
		s = beep.Resample(4, format.SampleRate, OutputRate, s)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
