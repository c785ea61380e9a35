package main

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"voicebot/internal/convo"
	"voicebot/internal/depcheck"
)

func TestRun_MissingDependency(t *testing.T) {
	t.Chdir(t.TempDir())

	called := false
	orig := checkDeps
	checkDeps = func(context.Context) error {
		called = true
		return &depcheck.MissingError{Program: "ffmpeg", Hint: "apt install ffmpeg", Err: errors.New("not found")}
	}
	t.Cleanup(func() { checkDeps = orig })

	assert.Equal(t, 1, run([]string{"--log", "error"}))
	assert.True(t, called)
}

func TestRun_BadFlags(t *testing.T) {
	t.Chdir(t.TempDir())

	orig := checkDeps
	checkDeps = func(context.Context) error {
		t.Fatal("dependencies checked before flags were valid")
		return nil
	}
	t.Cleanup(func() { checkDeps = orig })

	assert.Equal(t, 2, run([]string{"--tts", "morse"}))
}

func TestWaitExit(t *testing.T) {
	t.Run("natural end", func(t *testing.T) {
		end := make(chan convo.EndReason, 1)
		end <- convo.Farewell
		assert.Equal(t, 0, waitExit(context.Background(), end, nil))
	})

	t.Run("signal", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Equal(t, 0, waitExit(ctx, nil, nil))
	})

	t.Run("server closed", func(t *testing.T) {
		serveErr := make(chan error, 1)
		serveErr <- http.ErrServerClosed
		assert.Equal(t, 0, waitExit(context.Background(), nil, serveErr))
	})

	t.Run("server failed", func(t *testing.T) {
		serveErr := make(chan error, 1)
		serveErr <- errors.New("address already in use")
		assert.Equal(t, 1, waitExit(context.Background(), nil, serveErr))
	})
}
