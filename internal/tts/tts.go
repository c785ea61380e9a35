// Package tts speaks text aloud.
//
// Engines are blocking and not reentrant: wrap them in Serial before sharing
// one between goroutines.
package tts

import (
	"context"
	"sync"
)

// Speaker plays text as audio and returns once playback finished.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// SpeakerFunc adapts a function to Speaker.
type SpeakerFunc func(ctx context.Context, text string) error

func (f SpeakerFunc) Speak(ctx context.Context, text string) error { return f(ctx, text) }

// Nop discards text.
type Nop struct{}

func (Nop) Speak(context.Context, string) error { return nil }

// Serial serializes access to a Speaker: a second Speak waits until the
// first one returned.
type Serial struct {
	mu sync.Mutex
	s  Speaker
}

// NewSerial wraps s.
func NewSerial(s Speaker) *Serial {
	return &Serial{s: s}
}

func (s *Serial) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return s.s.Speak(ctx, text)
}

var (
	_ Speaker = Nop{}
	_ Speaker = (*Serial)(nil)
)
