package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAI_Transcribe(t *testing.T) {
	var (
		model string
		head  []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		model = r.FormValue("model")
		f, _, err := r.FormFile("file")
		if assert.NoError(t, err) {
			head, _ = io.ReadAll(io.LimitReader(f, 4))
			f.Close()
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Tell me your life story"}`))
	}))
	defer srv.Close()

	tr, err := NewOpenAI(OpenAIConfig{APIKey: "sk-stt", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	text, err := tr.Transcribe(context.Background(), make([]float32, 1600))
	require.NoError(t, err)

	assert.Equal(t, "Tell me your life story", text)
	assert.Equal(t, "whisper-1", model)
	assert.Equal(t, "RIFF", string(head))
}

func TestOpenAI_TranscribeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer srv.Close()

	tr, err := NewOpenAI(OpenAIConfig{APIKey: "sk-stt", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	_, err = tr.Transcribe(context.Background(), make([]float32, 1600))
	assert.Error(t, err)

	_, err = tr.Transcribe(context.Background(), nil)
	assert.Error(t, err)

	_, err = NewOpenAI(OpenAIConfig{})
	assert.Error(t, err)
}
