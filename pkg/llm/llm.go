// Package llm provides chat completion clients and the entity extraction
// layer built on top of them.
package llm

import (
	"context"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Response is a completed chat response.
type Response struct {
	Content          string `json:"content"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
}

// StreamDelta is one increment of a streaming response. Err is set on the
// final delta when the stream terminated abnormally.
type StreamDelta struct {
	Content string
	Err     error
}

// Client is a chat completion provider.
type Client interface {
	// Chat sends messages and returns the complete response.
	Chat(ctx context.Context, messages []Message) (*Response, error)

	// ChatStream sends messages and returns a channel of response deltas.
	// The channel is closed when the response is complete or fails.
	ChatStream(ctx context.Context, messages []Message) (<-chan StreamDelta, error)

	// Close cleans up any resources.
	Close() error
}

// Config holds common LLM client configuration.
type Config struct {
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	MaxRetries  int
}

func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
