package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"voicebot/internal/convo"
	"voicebot/internal/vad"
)

type fakeRecorder struct {
	pcm []float32
	err error
}

func (r fakeRecorder) Record(context.Context) ([]float32, error) { return r.pcm, r.err }

type fakeSTT struct {
	text  string
	err   error
	calls int
}

func (s *fakeSTT) Transcribe(context.Context, []float32) (string, error) {
	s.calls++
	return s.text, s.err
}

type countCue struct{ n int }

func (c *countCue) Play(context.Context) error { c.n++; return nil }

func TestListener_Classifies(t *testing.T) {
	pcm := make([]float32, 160)

	tests := []struct {
		name string
		rec  fakeRecorder
		stt  *fakeSTT
		want convo.Utterance
	}{
		{
			name: "speech",
			rec:  fakeRecorder{pcm: pcm},
			stt:  &fakeSTT{text: "  Tell me\tyour life story "},
			want: convo.Said("Tell me your life story"),
		},
		{
			name: "timeout",
			rec:  fakeRecorder{err: vad.ErrWaitTimeout},
			stt:  &fakeSTT{},
			want: convo.Utterance{Failure: convo.Timeout},
		},
		{
			name: "device error",
			rec:  fakeRecorder{err: errors.New("no input device")},
			stt:  &fakeSTT{},
			want: convo.Utterance{Failure: convo.ServiceError},
		},
		{
			name: "empty capture",
			rec:  fakeRecorder{},
			stt:  &fakeSTT{},
			want: convo.Utterance{Failure: convo.NoSpeech},
		},
		{
			name: "backend error",
			rec:  fakeRecorder{pcm: pcm},
			stt:  &fakeSTT{err: errors.New("503")},
			want: convo.Utterance{Failure: convo.ServiceError},
		},
		{
			name: "blank audio",
			rec:  fakeRecorder{pcm: pcm},
			stt:  &fakeSTT{text: " [BLANK_AUDIO] (wind blowing) "},
			want: convo.Utterance{Failure: convo.NoSpeech},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cue := &countCue{}
			got := NewListener(tt.rec, tt.stt, cue, nil).Listen(context.Background())

			assert.Equal(t, tt.want.Failure, got.Failure)
			assert.Equal(t, tt.want.Text, got.Text)
			assert.Equal(t, 1, cue.n)
		})
	}
}

func TestListener_Cancelled(t *testing.T) {
	stt := &fakeSTT{text: "hi"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := NewListener(fakeRecorder{pcm: []float32{1}}, stt, nil, nil).Listen(ctx)
	assert.False(t, got.OK())
	assert.Zero(t, stt.calls)
}

func TestClean(t *testing.T) {
	assert.Equal(t, "hello there", Clean("[Music] hello   there (laughs)"))
	assert.Empty(t, Clean("[BLANK_AUDIO]"))
}
