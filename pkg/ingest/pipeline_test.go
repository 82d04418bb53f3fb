package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgraph-io/docgraph/pkg/graph"
	"github.com/docgraph-io/docgraph/pkg/types"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }
func (f *fakeEmbedder) Close() error    { return nil }

type fakeExtractor struct {
	result *types.ExtractionResult
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, text string) (*types.ExtractionResult, error) {
	return f.result, f.err
}

func (f *fakeExtractor) QueryTerms(ctx context.Context, question string) ([]string, error) {
	return nil, nil
}

// lineSplitter keeps chunk boundaries predictable in tests.
type lineSplitter struct{}

func (lineSplitter) Split(text string) ([]string, error) {
	var pieces []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			pieces = append(pieces, line)
		}
	}
	return pieces, nil
}

func newTestPipeline(t *testing.T, store *graph.MemoryStore, emb *fakeEmbedder, ext *fakeExtractor) *Pipeline {
	t.Helper()
	p, err := NewPipeline(store, emb, ext,
		WithSplitter(lineSplitter{}),
		WithPoolSize(2),
		WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestIngestRejectsInvalidInputBeforeIO(t *testing.T) {
	store := graph.NewMemoryStore()
	p := newTestPipeline(t, store, &fakeEmbedder{}, &fakeExtractor{})

	_, err := p.Ingest(context.Background(), "", "empty.txt", nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = p.Ingest(context.Background(), "   \n\t ", "blank.txt", nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = p.Ingest(context.Background(), "abc\xff\xfedef", "binary.bin", nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	docs, listErr := store.ListDocuments(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, docs, "rejected input never touches the store")
}

func TestIngestHappyPath(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	extraction := &types.ExtractionResult{
		Entities: []types.Entity{{Name: "Paris", Type: "LOCATION"}},
	}
	p := newTestPipeline(t, store, &fakeEmbedder{}, &fakeExtractor{result: extraction})

	docID, err := p.Ingest(ctx, "line one\nline two\nline three", "doc.txt", map[string]string{"source": "test"})
	require.NoError(t, err)

	doc, err := store.GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, types.DocumentProcessed, doc.Status)
	assert.Equal(t, 3, doc.ChunkCount)
	assert.Empty(t, doc.Error)

	chunks, err := store.ChunksByScope(ctx, []string{docID})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Embedding, "every chunk is embedded")
		assert.True(t, chunk.HasEntities)
	}

	// The same entity across all chunks resolves to one node.
	assert.Equal(t, 1, store.EntityCount())
}

func TestIngestEmbeddingFailureFailsDocument(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	p := newTestPipeline(t, store, &fakeEmbedder{err: errors.New("provider down")}, &fakeExtractor{})

	docID, err := p.Ingest(ctx, "some text", "doc.txt", nil)
	require.ErrorIs(t, err, types.ErrIngestionFailed)
	require.NotEmpty(t, docID, "document ID is returned even on failure")

	doc, getErr := store.GetDocument(ctx, docID)
	require.NoError(t, getErr)
	assert.Equal(t, types.DocumentError, doc.Status)
	assert.Contains(t, doc.Error, "embedding chunk")

	chunks, listErr := store.ChunksByScope(ctx, []string{docID})
	require.NoError(t, listErr)
	assert.Empty(t, chunks, "failed chunks are not persisted")
}

func TestIngestExtractionFailureIsBestEffort(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	p := newTestPipeline(t, store, &fakeEmbedder{}, &fakeExtractor{err: errors.New("llm down")})

	docID, err := p.Ingest(ctx, "some text", "doc.txt", nil)
	require.NoError(t, err, "extraction failure does not fail ingestion")

	doc, getErr := store.GetDocument(ctx, docID)
	require.NoError(t, getErr)
	assert.Equal(t, types.DocumentProcessed, doc.Status)

	chunks, listErr := store.ChunksByScope(ctx, []string{docID})
	require.NoError(t, listErr)
	require.Len(t, chunks, 1)
	assert.False(t, chunks[0].HasEntities)
	assert.NotEmpty(t, chunks[0].Embedding)
}

func TestIngestWithoutExtractor(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	p, err := NewPipeline(store, &fakeEmbedder{}, nil,
		WithSplitter(lineSplitter{}),
		WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	t.Cleanup(p.Release)

	docID, err := p.Ingest(ctx, "plain text", "doc.txt", nil)
	require.NoError(t, err)

	doc, getErr := store.GetDocument(ctx, docID)
	require.NoError(t, getErr)
	assert.Equal(t, types.DocumentProcessed, doc.Status)
}

func TestRecursiveSplitterBounds(t *testing.T) {
	s := NewRecursiveSplitter(100, 20)
	pieces, err := s.Split(strings.Repeat("All work and no play makes Jack a dull boy. ", 30))
	require.NoError(t, err)
	assert.Greater(t, len(pieces), 1)
}

func TestRecursiveSplitterZeroOverlapProducesDisjointChunks(t *testing.T) {
	// Zero disables overlap; only a negative overlap selects the default.
	text := "First sentence here.\n\nSecond sentence here.\n\nThird sentence here."
	s := NewRecursiveSplitter(25, 0)

	pieces, err := s.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(pieces), 1)

	seen := map[string]struct{}{}
	for _, piece := range pieces {
		_, dup := seen[piece]
		assert.False(t, dup, "chunks must not repeat text when overlap is disabled")
		seen[piece] = struct{}{}
	}
}

func TestRecursiveSplitterOversizedOverlapDisabled(t *testing.T) {
	// Overlap at or above the chunk size cannot advance; it collapses to none.
	s := NewRecursiveSplitter(25, 40)
	pieces, err := s.Split("First sentence here.\n\nSecond sentence here.")
	require.NoError(t, err)
	assert.Len(t, pieces, 2)
}
