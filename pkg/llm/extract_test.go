package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	response string
	err      error
}

func (s *scriptedClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Response{Content: s.response}, nil
}

func (s *scriptedClient) ChatStream(ctx context.Context, messages []Message) (<-chan StreamDelta, error) {
	out := make(chan StreamDelta, 1)
	out <- StreamDelta{Content: s.response}
	close(out)
	return out, nil
}

func (s *scriptedClient) Close() error { return nil }

func TestParseExtractionWellFormed(t *testing.T) {
	result, err := ParseExtraction(`{
		"entities": [
			{"name": "Paris", "type": "LOCATION", "attributes": {"country": "France"}},
			{"name": "France", "type": "LOCATION"}
		],
		"relationships": [
			{"source": "Paris", "target": "France", "type": "LOCATED_IN", "confidence": 0.95}
		]
	}`)
	require.NoError(t, err)
	require.Len(t, result.Entities, 2)
	assert.Equal(t, "Paris", result.Entities[0].Name)
	assert.Equal(t, "France", result.Entities[0].Attributes["country"])
	require.Len(t, result.Relationships, 1)
	assert.Equal(t, "LOCATED_IN", result.Relationships[0].Type)
	assert.InDelta(t, 0.95, result.Relationships[0].Confidence, 1e-9)
}

func TestParseExtractionRepairsMalformedJSON(t *testing.T) {
	// Trailing comma and unquoted key, typical truncated LLM output.
	result, err := ParseExtraction(`{
		"entities": [{"name": "Paris", type: "LOCATION"},],
		"relationships": []
	}`)
	require.NoError(t, err)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "Paris", result.Entities[0].Name)
}

func TestParseExtractionStripsCodeFences(t *testing.T) {
	result, err := ParseExtraction("```json\n{\"entities\": [{\"name\": \"Berlin\", \"type\": \"LOCATION\"}], \"relationships\": []}\n```")
	require.NoError(t, err)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "Berlin", result.Entities[0].Name)
}

func TestParseExtractionDropsInvalidRows(t *testing.T) {
	result, err := ParseExtraction(`{
		"entities": [{"name": "", "type": "LOCATION"}, {"name": "Lyon"}],
		"relationships": [{"source": "Lyon", "target": "", "type": "NEAR"}]
	}`)
	require.NoError(t, err)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "OTHER", result.Entities[0].Type, "missing type defaults to OTHER")
	assert.Empty(t, result.Relationships)
}

func TestQueryTermsFromModel(t *testing.T) {
	extractor := NewLLMExtractor(&scriptedClient{response: `{"terms": ["Paris", "France", "paris"]}`})

	terms, err := extractor.QueryTerms(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris", "France"}, terms, "duplicates collapse case-insensitively")
}

func TestQueryTermsFallsBackOnClientError(t *testing.T) {
	extractor := NewLLMExtractor(&scriptedClient{err: errors.New("provider down")})

	terms, err := extractor.QueryTerms(context.Background(), "Where is Marie Curie buried in Paris?")
	require.NoError(t, err)
	assert.Equal(t, []string{"Marie", "Curie", "Paris"}, terms)
}

func TestQueryTermsFallsBackOnGarbage(t *testing.T) {
	extractor := NewLLMExtractor(&scriptedClient{response: "I could not determine any terms."})

	terms, err := extractor.QueryTerms(context.Background(), "Tell me about Berlin")
	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin"}, terms)
}

func TestFallbackQueryTermsSkipsLeadingWord(t *testing.T) {
	terms := FallbackQueryTerms("Paris is linked to France")
	assert.Equal(t, []string{"France"}, terms, "first word capitalization carries no signal")

	assert.Empty(t, FallbackQueryTerms("what is a graph"))
}
