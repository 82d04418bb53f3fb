package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	jsonrepair "github.com/kaptinlin/jsonrepair"

	"github.com/docgraph-io/docgraph/pkg/types"
)

// Extractor pulls entities, relationships, and query terms out of text.
type Extractor interface {
	// Extract identifies entities and relationships in a passage.
	Extract(ctx context.Context, text string) (*types.ExtractionResult, error)

	// QueryTerms identifies the entity-like terms in a question, used to
	// seed graph traversal.
	QueryTerms(ctx context.Context, question string) ([]string, error)
}

const extractionSystemPrompt = `You are an information extraction system. Given a passage of text, identify the named entities and the relationships between them.

Respond with JSON only, no prose, in this shape:
{
  "entities": [{"name": "...", "type": "PERSON|ORGANIZATION|LOCATION|CONCEPT|EVENT|OTHER", "attributes": {}}],
  "relationships": [{"source": "...", "target": "...", "type": "UPPER_SNAKE_CASE_VERB", "confidence": 0.0}]
}

Entity names must appear in the passage. Relationship source and target must be entity names from the entities list.`

const queryTermsSystemPrompt = `You are a query analysis system. Given a question, list the named entities and key domain terms a knowledge graph lookup should start from.

Respond with JSON only: {"terms": ["...", "..."]}`

// LLMExtractor implements Extractor on top of a chat Client. LLM output is
// run through jsonrepair before parsing since models routinely emit
// truncated or fenced JSON.
type LLMExtractor struct {
	client Client
}

// NewLLMExtractor creates an extractor backed by the given chat client.
func NewLLMExtractor(client Client) *LLMExtractor {
	return &LLMExtractor{client: client}
}

// Extract implements Extractor.
func (e *LLMExtractor) Extract(ctx context.Context, text string) (*types.ExtractionResult, error) {
	resp, err := e.client.Chat(ctx, []Message{
		NewSystemMessage(extractionSystemPrompt),
		NewUserMessage(text),
	})
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	return ParseExtraction(resp.Content)
}

// QueryTerms implements Extractor. When the model response cannot be parsed,
// it falls back to a capitalized-token heuristic so retrieval still has
// traversal seeds.
func (e *LLMExtractor) QueryTerms(ctx context.Context, question string) ([]string, error) {
	resp, err := e.client.Chat(ctx, []Message{
		NewSystemMessage(queryTermsSystemPrompt),
		NewUserMessage(question),
	})
	if err != nil {
		return FallbackQueryTerms(question), nil
	}

	terms, err := parseQueryTerms(resp.Content)
	if err != nil || len(terms) == 0 {
		return FallbackQueryTerms(question), nil
	}
	return terms, nil
}

// ParseExtraction parses an extraction response, repairing malformed JSON
// first. Entities with empty names and relationships with missing endpoints
// are dropped.
func ParseExtraction(content string) (*types.ExtractionResult, error) {
	repaired, err := jsonrepair.JSONRepair(stripCodeFences(content))
	if err != nil {
		repaired = stripCodeFences(content)
	}

	var payload struct {
		Entities []struct {
			Name       string            `json:"name"`
			Type       string            `json:"type"`
			Attributes map[string]string `json:"attributes"`
		} `json:"entities"`
		Relationships []struct {
			Source     string  `json:"source"`
			Target     string  `json:"target"`
			Type       string  `json:"type"`
			Confidence float64 `json:"confidence"`
		} `json:"relationships"`
	}
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	result := &types.ExtractionResult{}
	for _, ent := range payload.Entities {
		name := strings.TrimSpace(ent.Name)
		if name == "" {
			continue
		}
		entityType := strings.TrimSpace(ent.Type)
		if entityType == "" {
			entityType = "OTHER"
		}
		result.Entities = append(result.Entities, types.Entity{
			Name:       name,
			Type:       entityType,
			Attributes: ent.Attributes,
		})
	}
	for _, rel := range payload.Relationships {
		source := strings.TrimSpace(rel.Source)
		target := strings.TrimSpace(rel.Target)
		if source == "" || target == "" {
			continue
		}
		relType := strings.TrimSpace(rel.Type)
		if relType == "" {
			relType = "RELATED_TO"
		}
		result.Relationships = append(result.Relationships, types.Relationship{
			Source:     source,
			Target:     target,
			Type:       relType,
			Confidence: rel.Confidence,
		})
	}
	return result, nil
}

func parseQueryTerms(content string) ([]string, error) {
	repaired, err := jsonrepair.JSONRepair(stripCodeFences(content))
	if err != nil {
		repaired = stripCodeFences(content)
	}

	var payload struct {
		Terms []string `json:"terms"`
	}
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse query terms response: %w", err)
	}

	var terms []string
	seen := make(map[string]struct{})
	for _, term := range payload.Terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		terms = append(terms, term)
	}
	return terms, nil
}

// FallbackQueryTerms extracts capitalized tokens from a question, skipping
// the leading word since it is capitalized by sentence position.
func FallbackQueryTerms(question string) []string {
	fields := strings.FieldsFunc(question, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var terms []string
	seen := make(map[string]struct{})
	for i, field := range fields {
		if i == 0 {
			continue
		}
		runes := []rune(field)
		if len(runes) < 2 || !unicode.IsUpper(runes[0]) {
			continue
		}
		key := strings.ToLower(field)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		terms = append(terms, field)
	}
	return terms
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

var _ Extractor = (*LLMExtractor)(nil)
