package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const defaultChatModel = "gpt-4o-mini"

// OpenAIClient implements Client using the OpenAI chat completions API, or
// any compatible endpoint via BaseURL. Failed calls are retried with
// exponential backoff when the failure looks transient.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	maxRetries  int
}

// NewOpenAIClient creates a new OpenAI chat client.
func NewOpenAIClient(apiKey string, config Config) *OpenAIClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = defaultChatModel
	}

	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		maxRetries:  maxRetries,
	}
}

// Chat implements Client.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	req := c.buildRequest(messages)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffDelay(attempt)):
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled during retry backoff: %w", ctx.Err())
			}
		}

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				return nil, fmt.Errorf("chat completion returned no choices")
			}
			return &Response{
				Content:          resp.Choices[0].Message.Content,
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
			}, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("chat failed after %d retries: %w", c.maxRetries, lastErr)
}

// ChatStream implements Client. Deltas are delivered in order; the channel
// closes after the final delta.
func (c *OpenAIClient) ChatStream(ctx context.Context, messages []Message) (<-chan StreamDelta, error) {
	req := c.buildRequest(messages)
	req.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat stream failed: %w", err)
	}

	out := make(chan StreamDelta)
	go func() {
		defer close(out)
		defer stream.Close()

		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				select {
				case out <- StreamDelta{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case out <- StreamDelta{Content: delta}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close implements Client.
func (c *OpenAIClient) Close() error {
	return nil
}

func (c *OpenAIClient) buildRequest(messages []Message) openai.ChatCompletionRequest {
	converted := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		converted[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    converted,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
}

func backoffDelay(attempt int) time.Duration {
	delay := float64(time.Second) * math.Pow(2.0, float64(attempt-1))
	if delay > float64(30*time.Second) {
		delay = float64(30 * time.Second)
	}
	return time.Duration(delay)
}

// isRetryableError reports whether a provider error is worth retrying.
// Rate limits and server-side failures are; schema and auth errors are not.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= 500 || apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}

	errMsg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"connection reset",
		"connection refused",
		"temporary failure",
		"rate limit",
		"too many requests",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

var _ Client = (*OpenAIClient)(nil)
