package tts

import (
	"context"
	"sync"
	"time"
)

// Mock implements Speaker for testing and records every call.
type Mock struct {
	// SpeakFunc runs for each call when set.
	SpeakFunc func(ctx context.Context, text string) error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records one Speak invocation.
type MockCall struct {
	Text  string
	Start time.Time
	End   time.Time
}

// NewMock creates a mock that returns immediately.
func NewMock() *Mock { return &Mock{} }

func (m *Mock) Speak(ctx context.Context, text string) error {
	start := time.Now()
	var err error
	if m.SpeakFunc != nil {
		err = m.SpeakFunc(ctx, text)
	}

	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Text: text, Start: start, End: time.Now()})
	m.mu.Unlock()

	return err
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Texts returns the spoken texts in order.
func (m *Mock) Texts() []string {
	calls := m.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Text
	}
	return out
}

var _ Speaker = (*Mock)(nil)
