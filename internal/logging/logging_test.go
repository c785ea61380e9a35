package logging

import (
	"bytes"
	log "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", true)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("Session ended", "reason", "farewell")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Session ended")
	assert.Contains(t, out, "reason=farewell")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, log.LevelDebug, lvl)

	lvl, err = ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, log.LevelInfo, lvl)
}
