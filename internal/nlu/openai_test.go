package nlu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatBody struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, status int, content string, seen *chatBody, auth *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		*auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error","code":"invalid_api_key"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   seen.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_Complete(t *testing.T) {
	var seen chatBody
	var auth string
	srv := completionServer(t, http.StatusOK, "Beep boop, hello!", &seen, &auth)

	c, err := NewOpenAI("sk-test", Options{BaseURL: srv.URL + "/v1/", Model: "gpt-4o"})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), NewRequest("how are you"))
	require.NoError(t, err)

	assert.Equal(t, "Beep boop, hello!", out)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o", seen.Model)
	assert.Equal(t, 150, seen.MaxTokens)
	assert.InDelta(t, 0.7, seen.Temperature, 1e-9)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, systemPrompt, seen.Messages[0].Content)
	assert.Contains(t, seen.Messages[1].Content, "Question: how are you")
}

func TestOpenAI_CompleteError(t *testing.T) {
	var seen chatBody
	var auth string
	srv := completionServer(t, http.StatusUnauthorized, "", &seen, &auth)

	c, err := NewOpenAI("sk-wrong", Options{BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), NewRequest("hi"))
	require.Error(t, err)

	// Routed through the router the failure becomes the apology.
	assert.Equal(t, ReplyApology, NewRouter(nil, nil).Reply(context.Background(), "hi", c))
}

func TestCompat_Complete(t *testing.T) {
	var seen chatBody
	var auth string
	srv := completionServer(t, http.StatusOK, "Local and proud.", &seen, &auth)

	c, err := NewCompat("ollama", Options{BaseURL: srv.URL + "/v1", Model: "llama3"})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), NewRequest("where do you run"))
	require.NoError(t, err)

	assert.Equal(t, "Local and proud.", out)
	assert.Equal(t, "Bearer ollama", auth)
	assert.Equal(t, "llama3", seen.Model)
	assert.Equal(t, 150, seen.MaxTokens)
	require.Len(t, seen.Messages, 2)
	assert.Contains(t, seen.Messages[1].Content, "Question: where do you run")
}

func TestCompat_CompleteError(t *testing.T) {
	var seen chatBody
	var auth string
	srv := completionServer(t, http.StatusUnauthorized, "", &seen, &auth)

	c, err := NewCompat("nope", Options{BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), NewRequest("hi"))
	assert.Error(t, err)
}
