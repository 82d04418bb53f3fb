// Package embedder converts text into fixed-length embedding vectors.
package embedder

import (
	"context"
)

// Client is the embedding capability. Implementations must return vectors of
// consistent fixed length for the lifetime of a deployment.
type Client interface {
	// Embed generates embeddings for the given texts, one vector per input,
	// in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector length produced by this client.
	Dimensions() int

	// Close cleans up any resources.
	Close() error
}

// Config holds common embedder configuration.
type Config struct {
	Model      string
	BaseURL    string
	Dimensions int
}
