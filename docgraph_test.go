package docgraph

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgraph-io/docgraph/pkg/graph"
	"github.com/docgraph-io/docgraph/pkg/llm"
	"github.com/docgraph-io/docgraph/pkg/types"
)

// keywordEmbedder produces deterministic embeddings keyed on content, so the
// vector signal behaves predictably without a real provider.
type keywordEmbedder struct{}

func (keywordEmbedder) embed(text string) []float32 {
	switch {
	case strings.Contains(text, "capital of France"):
		return []float32{1, 0, 0}
	case strings.Contains(text, "Eiffel"):
		return []float32{0, 1, 0}
	case strings.Contains(text, "Germany"):
		return []float32{0, 0, 1}
	default:
		return []float32{0.1, 0.1, 0.1}
	}
}

func (k keywordEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = k.embed(text)
	}
	return out, nil
}

func (k keywordEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return k.embed(text), nil
}

func (keywordEmbedder) Dimensions() int { return 3 }
func (keywordEmbedder) Close() error    { return nil }

// scriptedLLM answers every chat with a fixed response.
type scriptedLLM struct {
	answer string
}

func (s *scriptedLLM) Chat(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	return &llm.Response{Content: s.answer}, nil
}

func (s *scriptedLLM) ChatStream(ctx context.Context, messages []llm.Message) (<-chan llm.StreamDelta, error) {
	out := make(chan llm.StreamDelta, 2)
	half := len(s.answer) / 2
	out <- llm.StreamDelta{Content: s.answer[:half]}
	out <- llm.StreamDelta{Content: s.answer[half:]}
	close(out)
	return out, nil
}

func (s *scriptedLLM) Close() error { return nil }

// geoExtractor recognizes the capital-city fixtures.
type geoExtractor struct{}

func (geoExtractor) Extract(ctx context.Context, text string) (*types.ExtractionResult, error) {
	result := &types.ExtractionResult{}
	switch {
	case strings.Contains(text, "capital of France"):
		result.Entities = []types.Entity{
			{Name: "Paris", Type: "LOCATION"},
			{Name: "France", Type: "LOCATION"},
		}
		result.Relationships = []types.Relationship{
			{Source: "Paris", Target: "France", Type: "CAPITAL_OF", Confidence: 0.95},
		}
	case strings.Contains(text, "Eiffel"):
		result.Entities = []types.Entity{
			{Name: "Eiffel Tower", Type: "LANDMARK"},
			{Name: "Paris", Type: "LOCATION"},
		}
		result.Relationships = []types.Relationship{
			{Source: "Eiffel Tower", Target: "Paris", Type: "LOCATED_IN", Confidence: 0.9},
		}
	case strings.Contains(text, "Germany"):
		result.Entities = []types.Entity{
			{Name: "Berlin", Type: "LOCATION"},
			{Name: "Germany", Type: "LOCATION"},
		}
		result.Relationships = []types.Relationship{
			{Source: "Berlin", Target: "Germany", Type: "CAPITAL_OF", Confidence: 0.95},
		}
	}
	return result, nil
}

func (geoExtractor) QueryTerms(ctx context.Context, question string) ([]string, error) {
	var terms []string
	for _, candidate := range []string{"Paris", "France", "Berlin", "Germany"} {
		if strings.Contains(strings.ToLower(question), strings.ToLower(candidate)) {
			terms = append(terms, candidate)
		}
	}
	return terms, nil
}

const citiesText = "The Eiffel Tower is in Paris.\n\n" +
	"Paris is the capital of France.\n\n" +
	"Berlin is the capital of Germany."

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()

	engine, err := NewEngine(graph.NewMemoryStore(), keywordEmbedder{},
		&scriptedLLM{answer: "The capital of France is Paris."}, geoExtractor{},
		Config{
			ChunkSize:    40,
			ChunkOverlap: 0,
			Logger:       slog.New(slog.DiscardHandler),
		})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, engine.Close(context.Background()))
	})

	docID, err := engine.Ingest(context.Background(), citiesText, "cities.txt", nil)
	require.NoError(t, err)
	return engine, docID
}

func TestEngineIngestProducesThreeChunks(t *testing.T) {
	engine, docID := newTestEngine(t)

	doc, err := engine.Document(context.Background(), docID)
	require.NoError(t, err)
	assert.Equal(t, types.DocumentProcessed, doc.Status)
	assert.Equal(t, 3, doc.ChunkCount)

	docs, err := engine.Documents(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestEngineRetrieveRanksCapitalChunkFirst(t *testing.T) {
	engine, docID := newTestEngine(t)

	evidence, err := engine.Retrieve(context.Background(), "What is the capital of France?", []string{docID}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, evidence)

	top := evidence[0]
	assert.Equal(t, "Paris is the capital of France.", top.Content)
	assert.Greater(t, top.Signals.Vector, 0.65)
	assert.Greater(t, top.Signals.Lexical, 0.0)
	assert.Greater(t, top.Signals.Graph, 0.0)

	entityNames := make(map[string]bool)
	for _, entity := range top.Entities {
		entityNames[entity.Name] = true
	}
	assert.True(t, entityNames["Paris"])
	assert.True(t, entityNames["France"])

	for i := 1; i < len(evidence); i++ {
		assert.LessOrEqual(t, evidence[i].Score, evidence[i-1].Score)
	}
}

func TestEngineRetrieveValidation(t *testing.T) {
	engine, docID := newTestEngine(t)

	_, err := engine.Retrieve(context.Background(), "   ", []string{docID}, nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	evidence, err := engine.Retrieve(context.Background(), "anything", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, evidence, "empty scope is a no-evidence result, not an error")
}

func TestEngineRetrieveRespectsResultCount(t *testing.T) {
	engine, docID := newTestEngine(t)

	evidence, err := engine.Retrieve(context.Background(), "What is the capital of France?", []string{docID},
		&QueryOptions{ResultCount: 1})
	require.NoError(t, err)
	assert.Len(t, evidence, 1)
}

func TestEngineAsk(t *testing.T) {
	engine, docID := newTestEngine(t)

	answer, err := engine.Ask(context.Background(), "What is the capital of France?", []string{docID}, nil)
	require.NoError(t, err)
	assert.False(t, answer.NoEvidence)
	assert.Equal(t, "The capital of France is Paris.", answer.Answer)
	assert.NotEmpty(t, answer.Evidence)
}

func TestEngineAskNoEvidence(t *testing.T) {
	engine, _ := newTestEngine(t)

	answer, err := engine.Ask(context.Background(), "anything", []string{}, nil)
	require.NoError(t, err, "zero evidence is never an error for the caller")
	assert.True(t, answer.NoEvidence)
	assert.Contains(t, answer.Answer, "No relevant information")
}

func TestEngineAskStream(t *testing.T) {
	engine, docID := newTestEngine(t)

	events, err := engine.AskStream(context.Background(), "What is the capital of France?", []string{docID}, nil)
	require.NoError(t, err)

	var deltas strings.Builder
	var done *Answer
	for event := range events {
		switch event.Type {
		case StreamDelta:
			deltas.WriteString(event.Delta)
		case StreamDone:
			done = event.Answer
		case StreamError:
			t.Fatalf("unexpected stream error: %v", event.Err)
		}
	}

	require.NotNil(t, done, "stream terminates with a done event")
	assert.Equal(t, "The capital of France is Paris.", deltas.String())
	assert.Equal(t, deltas.String(), done.Answer)
	assert.NotEmpty(t, done.Evidence)
}

func TestEngineAskStreamNoEvidence(t *testing.T) {
	engine, _ := newTestEngine(t)

	events, err := engine.AskStream(context.Background(), "anything", nil, nil)
	require.NoError(t, err)

	var done *Answer
	for event := range events {
		if event.Type == StreamDone {
			done = event.Answer
		}
	}
	require.NotNil(t, done)
	assert.True(t, done.NoEvidence)
}
