package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// fakeOllama serves the subset of the OpenAI-compatible API the client uses.
type fakeOllama struct {
	mu       sync.Mutex
	requests []chatRequest
	reply    string
	status   int
	delay    time.Duration
	noChoice bool
}

func (f *fakeOllama) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		if f.delay > 0 {
			select {
			case <-time.After(f.delay):
			case <-r.Context().Done():
				return
			}
		}
		if f.status != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"api_error"}}`))
			return
		}

		choices := []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": f.reply},
			"finish_reason": "stop",
		}}
		if f.noChoice {
			choices = []map[string]any{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   req.Model,
			"choices": choices,
		})
	})
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[
			{"id":"mistral:latest","object":"model","owned_by":"library"},
			{"id":"llama3:latest","object":"model","owned_by":"library"}]}`))
	})
	return mux
}

func newFake(t *testing.T, f *fakeOllama) string {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestComplete(t *testing.T) {
	f := &fakeOllama{reply: "Hello there."}
	c := NewClient(newFake(t, f), "llama3", 0)

	got, err := c.Complete(context.Background(), "Say hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", got)

	require.Len(t, f.requests, 1)
	req := f.requests[0]
	assert.Equal(t, "llama3", req.Model)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "Say hello", req.Messages[0].Content)
}

func TestSetModelAffectsNextRequest(t *testing.T) {
	f := &fakeOllama{reply: "ok"}
	c := NewClient(newFake(t, f)+"/", "llama3", 0)

	_, err := c.Complete(context.Background(), "one")
	require.NoError(t, err)

	c.SetModel("mistral")
	assert.Equal(t, "mistral", c.Model())

	_, err = c.Complete(context.Background(), "two")
	require.NoError(t, err)

	require.Len(t, f.requests, 2)
	assert.Equal(t, "llama3", f.requests[0].Model)
	assert.Equal(t, "mistral", f.requests[1].Model)
}

func TestCompleteHTTPError(t *testing.T) {
	f := &fakeOllama{status: http.StatusNotFound}
	c := NewClient(newFake(t, f), "nope", 0)

	_, err := c.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm: chat with nope")
}

func TestCompleteNoChoices(t *testing.T) {
	f := &fakeOllama{noChoice: true}
	c := NewClient(newFake(t, f), "llama3", 0)

	_, err := c.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCompleteTimeout(t *testing.T) {
	f := &fakeOllama{reply: "late", delay: 2 * time.Second}
	c := NewClient(newFake(t, f), "llama3", 50*time.Millisecond)

	start := time.Now()
	_, err := c.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCompleteUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "llama3", time.Second)
	_, err := c.Complete(context.Background(), "hi")
	assert.Error(t, err)
}

func TestModels(t *testing.T) {
	c := NewClient(newFake(t, &fakeOllama{}), "llama3", 0)

	got, err := c.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:latest", "mistral:latest"}, got)
}
