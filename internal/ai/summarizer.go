// Package ai wraps the language model used to summarize repositories.
// The rest of the system treats it as an opaque summarize(prompt) -> text
// collaborator; everything model-specific lives here.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ModelDefault is the model used when neither config nor environment
// overrides it.
const ModelDefault = "claude-sonnet-4-5-20250929"

// DefaultModel returns the model name, honoring the REPOLENS_MODEL
// environment variable.
func DefaultModel() string {
	if model := os.Getenv("REPOLENS_MODEL"); model != "" {
		return model
	}
	return ModelDefault
}

// Config holds summarizer construction options.
type Config struct {
	// APIKey for the Anthropic API. Empty means read ANTHROPIC_API_KEY.
	APIKey string

	// Model name. Empty means DefaultModel().
	Model string

	// MaxTokens caps the response size. Zero means 4096.
	MaxTokens int

	// MaxConcurrentCalls bounds in-flight API calls. Zero means 3.
	MaxConcurrentCalls int

	// RequestsPerMinute rate-limits API calls. Zero disables limiting.
	RequestsPerMinute int
}

// Client calls the Anthropic Messages API to summarize repositories.
// Construct once and reuse across analyses; it is safe for concurrent use.
type Client struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	sem       *semaphore.Weighted
	limiter   *rate.Limiter
}

// NewClient builds a summarizer client. It fails fast when no API key is
// available so a misconfigured deployment is caught at startup, not on the
// first analysis.
func NewClient(cfg Config) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel()
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	maxConcurrent := cfg.MaxConcurrentCalls
	if maxConcurrent == 0 {
		maxConcurrent = 3
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Client{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
		sem:       semaphore.NewWeighted(int64(maxConcurrent)),
		limiter:   limiter,
	}, nil
}

// Model returns the model this client is configured with.
func (c *Client) Model() string {
	return c.model
}

// Summarize sends the prompt and returns the model's text response. The
// response may be slow or malformed; callers own extraction and parsing.
func (c *Client) Summarize(ctx context.Context, prompt string) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquiring API slot: %w", err)
	}
	defer c.sem.Release(1)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	slog.Debug("summarization call finished",
		"model", c.model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration", time.Since(start))

	return text, nil
}
