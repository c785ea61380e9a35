package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicebot/internal/vad"
	"voicebot/pkg/audioconv"
)

func TestReplay(t *testing.T) {
	pcm := make([]float32, audioconv.SampleRate/10)
	for i := range pcm {
		pcm[i] = 0.25
	}
	data, err := audioconv.EncodeWAV(pcm)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "question.wav")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	r := NewReplay(10*time.Millisecond, path)
	ctx := context.Background()

	got, err := r.Record(ctx)
	require.NoError(t, err)
	assert.Len(t, got, len(pcm))

	_, err = r.Record(ctx)
	assert.ErrorIs(t, err, vad.ErrWaitTimeout)
}

func TestReplay_Cancelled(t *testing.T) {
	r := NewReplay(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Record(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
