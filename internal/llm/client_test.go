package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(text string) string {
	out := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": text}},
		},
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	t.Setenv("TEST_LLM_KEY", "test-key")
	c, err := NewClient(Config{
		BaseURL:   baseURL,
		APIKeyEnv: "TEST_LLM_KEY",
		Model:     "gpt-4o-mini",
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string    `json:"model"`
			Messages []Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.NotEmpty(t, req.Messages)

		_, _ = w.Write([]byte(completionBody("Ishmael is the narrator.")))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	got, err := c.Complete(context.Background(), []Message{
		{Role: "system", Content: "You are helpful."},
		{Role: "user", Content: "Who is Ishmael?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ishmael is the narrator.", got)
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(completionBody("recovered")))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	got, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompleteClientErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.ErrorIs(t, err, ErrProvider)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, ErrProvider)
}

func TestCompleteMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, ErrProvider)
}

func TestCompleteNoMessages(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:0")
	_, err := c.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrProvider)
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "TEST_LLM_KEY"})
	assert.Error(t, err)
}
