package depcheck

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequire(t *testing.T) {
	var got []string
	ok := Checker{Run: func(_ context.Context, name string, args ...string) error {
		got = append([]string{name}, args...)
		return nil
	}}
	require.NoError(t, ok.Require(context.Background(), "ffmpeg", "-version"))
	assert.Equal(t, []string{"ffmpeg", "-version"}, got)
}

func TestRequire_Missing(t *testing.T) {
	c := Checker{
		GOOS: "windows",
		Run: func(context.Context, string, ...string) error {
			return exec.ErrNotFound
		},
	}

	err := c.Require(context.Background(), "ffmpeg", "-version")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingDependency)
	assert.ErrorIs(t, err, exec.ErrNotFound)

	var me *MissingError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "ffmpeg", me.Program)
	assert.Contains(t, err.Error(), "winget install ffmpeg")
}

func TestInstallHint(t *testing.T) {
	assert.Equal(t, "brew install ffmpeg", InstallHint("darwin", "ffmpeg"))
	assert.Contains(t, InstallHint("linux", "ffmpeg"), "apt install ffmpeg")
}
