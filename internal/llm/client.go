// Package llm sends prompts to a local Ollama runtime through its
// OpenAI-compatible API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyResponse is returned when the runtime answers without any choices.
var ErrEmptyResponse = errors.New("llm: runtime returned no choices")

// Client holds the selected model and issues one blocking request per prompt.
type Client struct {
	client  *openai.Client
	timeout time.Duration

	mu    sync.RWMutex
	model string
}

// NewClient creates a client for the runtime at host (for example
// http://localhost:11434). A zero timeout waits for the runtime indefinitely.
func NewClient(host, model string, timeout time.Duration) *Client {
	// Ollama ignores the API key but the OpenAI client requires one.
	cfg := openai.DefaultConfig("ollama")
	cfg.BaseURL = strings.TrimRight(host, "/") + "/v1"
	return &Client{
		client:  openai.NewClientWithConfig(cfg),
		timeout: timeout,
		model:   model,
	}
}

// SetModel selects the model used by subsequent requests.
func (c *Client) SetModel(name string) {
	c.mu.Lock()
	c.model = name
	c.mu.Unlock()
}

// Model returns the currently selected model.
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// Complete sends prompt as a single user message and returns the content of
// the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	model := c.Model()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: chat with %s: %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Models lists the models installed in the runtime, sorted by name.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("llm: list models: %w", err)
	}
	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.ID)
	}
	sort.Strings(names)
	return names, nil
}
