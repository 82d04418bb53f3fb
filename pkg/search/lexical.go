package search

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/docgraph-io/docgraph/pkg/graph"
	"github.com/docgraph-io/docgraph/pkg/types"
	"github.com/docgraph-io/docgraph/pkg/utils"
)

// substringFallbackScore is assigned to chunks found by the plain substring
// fallback, where no per-token ratio is available.
const substringFallbackScore = 0.5

// LexicalSearcher scores chunks by the fraction of question tokens they
// contain. Tokens shorter than three characters carry no signal and are
// dropped before matching.
type LexicalSearcher struct {
	store  graph.ChunkSearcher
	logger *slog.Logger
}

// NewLexicalSearcher creates a lexical searcher.
func NewLexicalSearcher(store graph.ChunkSearcher, logger *slog.Logger) *LexicalSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LexicalSearcher{store: store, logger: logger}
}

// Name implements Searcher.
func (s *LexicalSearcher) Name() string {
	return "lexical"
}

// Search implements Searcher. When the token path fails it falls back to a
// whole-question substring match at a fixed score.
func (s *LexicalSearcher) Search(ctx context.Context, question string, scope []string, topK int) ([]types.EvidenceItem, error) {
	tokens := Tokenize(question)
	if len(tokens) == 0 {
		return s.substringFallback(ctx, question, scope, topK)
	}

	chunks, err := s.store.SearchChunksByTokens(ctx, tokens, scope)
	if err != nil {
		s.logger.Warn("lexical token search failed, falling back to substring match", "error", err)
		return s.substringFallback(ctx, question, scope, topK)
	}

	scored := make([]utils.ScoredItem[*types.Chunk], 0, len(chunks))
	for _, chunk := range chunks {
		text := strings.ToLower(chunk.Text)
		matched := 0
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		ratio := float64(matched) / float64(len(tokens))
		scored = append(scored, utils.ScoredItem[*types.Chunk]{Item: chunk, Score: ratio})
	}

	return s.toEvidence(utils.TopKByScore(scored, topK)), nil
}

func (s *LexicalSearcher) substringFallback(ctx context.Context, question string, scope []string, topK int) ([]types.EvidenceItem, error) {
	query := strings.TrimSpace(question)
	if query == "" {
		return nil, nil
	}

	chunks, err := s.store.SearchChunksBySubstring(ctx, query, scope)
	if err != nil {
		s.logger.Warn("lexical search degraded, substring fallback failed", "error", err)
		return nil, nil
	}

	scored := make([]utils.ScoredItem[*types.Chunk], 0, len(chunks))
	for _, chunk := range chunks {
		scored = append(scored, utils.ScoredItem[*types.Chunk]{Item: chunk, Score: substringFallbackScore})
	}
	return s.toEvidence(utils.TopKByScore(scored, topK)), nil
}

func (s *LexicalSearcher) toEvidence(top []utils.ScoredItem[*types.Chunk]) []types.EvidenceItem {
	items := make([]types.EvidenceItem, 0, len(top))
	for _, entry := range top {
		items = append(items, types.EvidenceItem{
			Content:    entry.Item.Text,
			DocumentID: entry.Item.DocumentID,
			Score:      entry.Score,
			Signals:    types.SignalScores{Lexical: entry.Score},
		})
	}
	return items
}

// Tokenize lowercases the question and splits it into alphanumeric tokens,
// keeping only those longer than two characters.
func Tokenize(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	seen := make(map[string]struct{})
	for _, field := range fields {
		if len([]rune(field)) <= 2 {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		tokens = append(tokens, field)
	}
	return tokens
}

var _ Searcher = (*LexicalSearcher)(nil)
