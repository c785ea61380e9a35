// Package vad splits a stream of microphone frames into a single spoken
// phrase using an RMS energy threshold.
package vad

import (
	"errors"
	"math"
	"time"
)

// ErrWaitTimeout is returned when no speech starts within Limits.StartTimeout.
var ErrWaitTimeout = errors.New("vad: no speech before timeout")

// Defaults for one listening attempt.
const (
	DefaultStartTimeout = 5 * time.Second
	DefaultPhraseLimit  = 15 * time.Second
	DefaultCalibrate    = time.Second
	DefaultSilence      = 800 * time.Millisecond
	DefaultThreshold    = 0.015
)

// Limits bounds a single listening attempt.
type Limits struct {
	StartTimeout time.Duration // time allowed for speech to begin
	PhraseLimit  time.Duration // maximum phrase length once speech began
	Calibrate    time.Duration // ambient noise sampling before listening, 0 disables
	Silence      time.Duration // trailing silence that ends a phrase
	Threshold    float64       // minimum RMS considered speech
}

// DefaultLimits returns the limits used by the conversation loop.
func DefaultLimits() Limits {
	return Limits{
		StartTimeout: DefaultStartTimeout,
		PhraseLimit:  DefaultPhraseLimit,
		Calibrate:    DefaultCalibrate,
		Silence:      DefaultSilence,
		Threshold:    DefaultThreshold,
	}
}

// Verdict is what the segmenter wants the caller to do after a frame.
type Verdict int

const (
	Continue Verdict = iota
	Done
	TimedOut
)

// Segmenter consumes fixed-size frames, one call per frame. It is not safe
// for concurrent use.
type Segmenter struct {
	limits   Limits
	frameDur time.Duration

	threshold   float64
	calibFrames int
	ambient     float64

	elapsed   time.Duration
	speechDur time.Duration
	silence   time.Duration
	speaking  bool

	out []float32
}

// NewSegmenter creates a segmenter for frames of frameSize samples at
// sampleRate Hz.
func NewSegmenter(limits Limits, sampleRate, frameSize int) *Segmenter {
	if limits.Threshold <= 0 {
		limits.Threshold = DefaultThreshold
	}
	if limits.Silence <= 0 {
		limits.Silence = DefaultSilence
	}
	frameDur := time.Duration(frameSize) * time.Second / time.Duration(sampleRate)
	s := &Segmenter{
		limits:    limits,
		frameDur:  frameDur,
		threshold: limits.Threshold,
	}
	if limits.Calibrate > 0 && frameDur > 0 {
		s.calibFrames = int(limits.Calibrate / frameDur)
	}
	return s
}

// Threshold returns the current speech threshold, raised by calibration.
func (s *Segmenter) Threshold() float64 { return s.threshold }

// Feed processes one frame. The frame is copied when it is kept.
func (s *Segmenter) Feed(frame []float32) Verdict {
	rms := RMS(frame)

	if s.calibFrames > 0 {
		s.calibFrames--
		if rms > s.ambient {
			s.ambient = rms
		}
		if s.calibFrames == 0 && s.ambient*1.5 > s.threshold {
			s.threshold = s.ambient * 1.5
		}
		return Continue
	}

	if !s.speaking {
		s.elapsed += s.frameDur
		if rms > s.threshold {
			s.speaking = true
			s.out = append(s.out, frame...)
			s.speechDur = s.frameDur
			return Continue
		}
		if s.limits.StartTimeout > 0 && s.elapsed >= s.limits.StartTimeout {
			return TimedOut
		}
		return Continue
	}

	s.out = append(s.out, frame...)
	s.speechDur += s.frameDur

	if rms > s.threshold {
		s.silence = 0
	} else {
		s.silence += s.frameDur
		if s.silence >= s.limits.Silence {
			return Done
		}
	}

	if s.limits.PhraseLimit > 0 && s.speechDur >= s.limits.PhraseLimit {
		return Done
	}
	return Continue
}

// Samples returns the captured phrase.
func (s *Segmenter) Samples() []float32 { return s.out }

// RMS returns the root mean square of a frame.
func RMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var sum float64
	for _, x := range f {
		sum += float64(x * x)
	}
	return math.Sqrt(sum / float64(len(f)))
}
