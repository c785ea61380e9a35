package audioconv

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownmix(t *testing.T) {
	assert.Equal(t, []float32{0.5, 0}, Downmix([]float32{1, 0, 0.5, -0.5}, 2))

	mono := []float32{0.1, 0.2}
	assert.Equal(t, mono, Downmix(mono, 1))
}

func TestResample(t *testing.T) {
	in := []float32{0, 1, 0, -1}

	up := Resample(in, 8000, 16000)
	require.Len(t, up, 8)
	assert.InDelta(t, 0.5, up[1], 1e-6)
	assert.InDelta(t, 1.0, up[2], 1e-6)

	down := Resample(make([]float32, 48000), 48000, SampleRate)
	assert.Len(t, down, SampleRate)

	assert.Equal(t, in, Resample(in, SampleRate, SampleRate))
}

func TestF32LE(t *testing.T) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b, math.Float32bits(0.25))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(-1))

	assert.Equal(t, []float32{0.25, -1}, F32LE(b))
}

func TestEncodeWAV_DecodesBack(t *testing.T) {
	pcm := make([]float32, SampleRate/10)
	for i := range pcm {
		pcm[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/SampleRate))
	}

	data, err := EncodeWAV(pcm)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))

	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := DecodeFile(context.Background(), path, Options{NoFFmpeg: true})
	require.NoError(t, err)
	require.Len(t, got, len(pcm))
	for i := range pcm {
		assert.InDelta(t, pcm[i], got[i], 1e-3)
	}

	short, err := DecodeFile(context.Background(), path, Options{NoFFmpeg: true, MaxSamples: 100})
	require.NoError(t, err)
	assert.Len(t, short, 100)
}

func TestDecodeFile_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("definitely not audio"), 0o644))

	_, err := DecodeFile(context.Background(), path, Options{NoFFmpeg: true})
	assert.ErrorIs(t, err, ErrUnsupported)
}
