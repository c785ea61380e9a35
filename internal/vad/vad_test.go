package vad

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRate  = 16000
	testFrame = 320 // 20ms
)

func frame(level float32) []float32 {
	f := make([]float32, testFrame)
	for i := range f {
		if i%2 == 0 {
			f[i] = level
		} else {
			f[i] = -level
		}
	}
	return f
}

func feedUntil(t *testing.T, s *Segmenter, frames func(i int) []float32, max int) (Verdict, int) {
	t.Helper()
	for i := 0; i < max; i++ {
		if v := s.Feed(frames(i)); v != Continue {
			return v, i + 1
		}
	}
	return Continue, max
}

func TestSegmenter_TimesOutWithoutSpeech(t *testing.T) {
	s := NewSegmenter(Limits{StartTimeout: 100 * time.Millisecond}, testRate, testFrame)

	v, n := feedUntil(t, s, func(int) []float32 { return frame(0) }, 100)

	assert.Equal(t, TimedOut, v)
	assert.Equal(t, 5, n)
	assert.Empty(t, s.Samples())
}

func TestSegmenter_EndsOnTrailingSilence(t *testing.T) {
	s := NewSegmenter(Limits{
		StartTimeout: time.Second,
		Silence:      100 * time.Millisecond,
	}, testRate, testFrame)

	// 2 silent frames, 10 loud, then silence.
	v, n := feedUntil(t, s, func(i int) []float32 {
		if i >= 2 && i < 12 {
			return frame(0.5)
		}
		return frame(0)
	}, 100)

	require.Equal(t, Done, v)
	assert.Equal(t, 17, n)
	assert.Len(t, s.Samples(), 15*testFrame)
}

func TestSegmenter_StopsAtPhraseLimit(t *testing.T) {
	s := NewSegmenter(Limits{
		StartTimeout: time.Second,
		PhraseLimit:  200 * time.Millisecond,
	}, testRate, testFrame)

	v, n := feedUntil(t, s, func(int) []float32 { return frame(0.5) }, 100)

	assert.Equal(t, Done, v)
	assert.Equal(t, 10, n)
	assert.Len(t, s.Samples(), 10*testFrame)
}

func TestSegmenter_CalibrationRaisesThreshold(t *testing.T) {
	s := NewSegmenter(Limits{
		StartTimeout: 200 * time.Millisecond,
		Calibrate:    100 * time.Millisecond,
	}, testRate, testFrame)

	// Ambient noise at 0.1 is louder than the default threshold.
	v, _ := feedUntil(t, s, func(int) []float32 { return frame(0.1) }, 100)

	assert.Equal(t, TimedOut, v)
	assert.InDelta(t, 0.15, s.Threshold(), 1e-6)
}

func TestRMS(t *testing.T) {
	assert.Zero(t, RMS(nil))
	assert.InDelta(t, 0.5, RMS(frame(0.5)), 1e-6)
}
