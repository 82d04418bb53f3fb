// Package ingest turns raw document text into embedded, entity-annotated
// chunks in the graph store.
package ingest

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

// Default chunking bounds. Overlap keeps sentences split across a boundary
// retrievable from both sides.
const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 200
)

// Splitter divides document text into bounded chunks.
type Splitter interface {
	Split(text string) ([]string, error)
}

// RecursiveSplitter splits on paragraph, then sentence, then word boundaries
// until every chunk fits the size bound.
type RecursiveSplitter struct {
	inner textsplitter.RecursiveCharacter
}

// NewRecursiveSplitter creates a splitter with the given bounds. A
// non-positive size selects the default. A negative overlap selects the
// default; zero disables overlap. An overlap at or above the size would make
// chunks fail to advance through the text, so it is treated as no overlap.
func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &RecursiveSplitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// Split implements Splitter.
func (s *RecursiveSplitter) Split(text string) ([]string, error) {
	chunks, err := s.inner.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}
	return chunks, nil
}

var _ Splitter = (*RecursiveSplitter)(nil)
