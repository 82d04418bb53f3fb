package docgraph

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/docgraph-io/docgraph/pkg/llm"
	"github.com/docgraph-io/docgraph/pkg/search"
	"github.com/docgraph-io/docgraph/pkg/types"
)

// noEvidenceMessage is returned to the user when retrieval found nothing.
const noEvidenceMessage = "No relevant information was found in the selected documents."

const answerSystemPrompt = `You are a helpful assistant that answers questions using only the provided context.

Rules:
- Answer using only facts present in the context.
- If the context does not contain the answer, say so plainly.
- Cite entities and relationships from the context where they support the answer.`

// Retrieve implements Querier. The three signals run concurrently, each with
// its own timeout; a failing signal degrades to an empty contribution. An
// empty scope returns an empty result without touching any backend.
func (e *Engine) Retrieve(ctx context.Context, question string, scope []string, opts *QueryOptions) ([]types.EvidenceItem, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", types.ErrInvalidInput)
	}
	if len(scope) == 0 {
		return nil, nil
	}

	topK := e.cfg.TopK
	resultCount := e.cfg.ResultCount
	if opts != nil {
		if opts.TopK > 0 {
			topK = opts.TopK
		}
		if opts.ResultCount > 0 {
			resultCount = opts.ResultCount
		}
	}

	searchers := []search.Searcher{e.vector, e.lexical}
	if e.graph != nil {
		searchers = append(searchers, e.graph)
	}

	results := make(map[string][]types.EvidenceItem, len(searchers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range searchers {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, e.cfg.SignalTimeout)
			defer cancel()

			items, err := s.Search(sctx, question, scope, topK)
			if err != nil {
				// One degraded signal never sinks the query.
				e.logger.Warn("retrieval signal failed", "signal", s.Name(), "error", err)
				return nil
			}
			mu.Lock()
			results[s.Name()] = items
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := search.Merge(results["vector"], results["lexical"], results["graph"], e.cfg.Weights, resultCount)
	e.logger.Info("retrieval complete", "question_len", len(question), "scope", len(scope), "evidence", len(merged))
	return merged, nil
}

// Ask implements Querier. Zero evidence yields a NoEvidence answer, never an
// error.
func (e *Engine) Ask(ctx context.Context, question string, scope []string, opts *QueryOptions) (*Answer, error) {
	evidence, err := e.Retrieve(ctx, question, scope, opts)
	if err != nil {
		return nil, err
	}
	if len(evidence) == 0 {
		return &Answer{Question: question, Answer: noEvidenceMessage, NoEvidence: true}, nil
	}

	resp, err := e.llm.Chat(ctx, answerMessages(question, evidence))
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	return &Answer{
		Question: question,
		Answer:   resp.Content,
		Evidence: evidence,
	}, nil
}

// AskStream implements Querier.
func (e *Engine) AskStream(ctx context.Context, question string, scope []string, opts *QueryOptions) (<-chan StreamEvent, error) {
	evidence, err := e.Retrieve(ctx, question, scope, opts)
	if err != nil {
		return nil, err
	}

	events := make(chan StreamEvent)

	if len(evidence) == 0 {
		go func() {
			defer close(events)
			answer := &Answer{Question: question, Answer: noEvidenceMessage, NoEvidence: true}
			emit(ctx, events, StreamEvent{Type: StreamDelta, Delta: noEvidenceMessage})
			emit(ctx, events, StreamEvent{Type: StreamDone, Answer: answer})
		}()
		return events, nil
	}

	deltas, err := e.llm.ChatStream(ctx, answerMessages(question, evidence))
	if err != nil {
		return nil, fmt.Errorf("answer stream failed: %w", err)
	}

	go func() {
		defer close(events)

		var full strings.Builder
		for delta := range deltas {
			if delta.Err != nil {
				emit(ctx, events, StreamEvent{Type: StreamError, Err: delta.Err})
				return
			}
			full.WriteString(delta.Content)
			if !emit(ctx, events, StreamEvent{Type: StreamDelta, Delta: delta.Content}) {
				return
			}
		}

		emit(ctx, events, StreamEvent{Type: StreamDone, Answer: &Answer{
			Question: question,
			Answer:   full.String(),
			Evidence: evidence,
		}})
	}()
	return events, nil
}

func answerMessages(question string, evidence []types.EvidenceItem) []llm.Message {
	return []llm.Message{
		llm.NewSystemMessage(answerSystemPrompt),
		llm.NewUserMessage(fmt.Sprintf("Context:\n%s\n\nQuestion: %s", search.FormatContext(evidence), question)),
	}
}

func emit(ctx context.Context, events chan<- StreamEvent, event StreamEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
