package notify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recPlayer struct{ paths []string }

func (p *recPlayer) PlayFile(_ context.Context, path string) error {
	p.paths = append(p.paths, path)
	return nil
}

func TestBeep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beep.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3"), 0o644))

	p := &recPlayer{}
	b, err := NewBeep(path, p)
	require.NoError(t, err)

	require.NoError(t, b.Play(context.Background()))
	assert.Equal(t, []string{path}, p.paths)
}

func TestBeep_Silent(t *testing.T) {
	p := &recPlayer{}
	b, err := NewBeep("", p)
	require.NoError(t, err)
	require.NoError(t, b.Play(context.Background()))
	assert.Empty(t, p.paths)

	_, err = NewBeep(filepath.Join(t.TempDir(), "missing.mp3"), p)
	assert.Error(t, err)
}
