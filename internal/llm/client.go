package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

// ErrProvider marks failures of the remote completion service. Callers can
// test for it with errors.Is to distinguish provider trouble from local bugs.
var ErrProvider = errors.New("llm provider error")

// Message is a single chat-completions message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is an OpenAI-compatible chat-completions client.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
	maxRetries  int
}

// Config configures the chat-completions client.
type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// NewClient creates a chat-completions client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      key,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: t},
		maxRetries:  2,
	}, nil
}

// Complete sends the messages and returns the assistant's reply text.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: no messages", ErrProvider)
	}
	body, _ := json.Marshal(map[string]any{
		"model":       c.model,
		"temperature": c.temperature,
		"messages":    messages,
	})
	url := fmt.Sprintf("%s/chat/completions", c.baseURL)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryDelay(attempt - 1)):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", ErrProvider, err)
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					time.Sleep(time.Duration(secs) * time.Second)
				}
			}
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("%w: %s", ErrProvider, resp.Status)
			continue
		}
		if resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			return "", fmt.Errorf("%w: %s", ErrProvider, resp.Status)
		}
		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrProvider, err)
			continue
		}
		var out struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(payload, &out); err != nil {
			return "", fmt.Errorf("%w: malformed response", ErrProvider)
		}
		if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
			return "", fmt.Errorf("%w: empty completion", ErrProvider)
		}
		return out.Choices[0].Message.Content, nil
	}
	return "", lastErr
}

func retryDelay(attempt int) time.Duration {
	base := 500 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
