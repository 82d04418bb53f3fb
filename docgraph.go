package docgraph

import (
	"context"
	"log/slog"
	"time"

	"github.com/docgraph-io/docgraph/pkg/embedder"
	"github.com/docgraph-io/docgraph/pkg/graph"
	"github.com/docgraph-io/docgraph/pkg/ingest"
	"github.com/docgraph-io/docgraph/pkg/llm"
	"github.com/docgraph-io/docgraph/pkg/search"
	"github.com/docgraph-io/docgraph/pkg/types"
)

// DefaultResultCount is the number of evidence items kept after fusion.
const DefaultResultCount = 5

// DefaultTopK is the per-signal candidate budget before fusion.
const DefaultTopK = 10

// DefaultSignalTimeout bounds each retrieval signal independently.
const DefaultSignalTimeout = 10 * time.Second

// Config holds engine tuning. The zero value selects all defaults.
type Config struct {
	// Weights control score fusion across the three signals.
	Weights search.Weights

	// VectorMinScore is the cosine similarity floor for the vector signal.
	VectorMinScore float64

	// MaxHops bounds graph traversal from seed entities.
	MaxHops int

	// TopK is the per-signal candidate budget.
	TopK int

	// ResultCount is the evidence list length after fusion.
	ResultCount int

	// SignalTimeout bounds each signal searcher independently.
	SignalTimeout time.Duration

	// ChunkSize and ChunkOverlap configure the document splitter.
	ChunkSize    int
	ChunkOverlap int

	// IngestWorkers sizes the chunk worker pool.
	IngestWorkers int

	// Logger receives engine telemetry. Defaults to slog.Default().
	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Weights == (search.Weights{}) {
		c.Weights = search.DefaultWeights()
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.ResultCount <= 0 {
		c.ResultCount = DefaultResultCount
	}
	if c.SignalTimeout <= 0 {
		c.SignalTimeout = DefaultSignalTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// QueryOptions override per-query tuning. Nil or zero fields fall back to
// the engine configuration.
type QueryOptions struct {
	TopK        int
	ResultCount int
}

// Answer is a generated response with its supporting evidence. NoEvidence is
// set when retrieval found nothing; it is a normal outcome, not an error.
type Answer struct {
	Question   string               `json:"question"`
	Answer     string               `json:"answer"`
	Evidence   []types.EvidenceItem `json:"evidence,omitempty"`
	NoEvidence bool                 `json:"no_evidence,omitempty"`
}

// StreamEventType discriminates streaming events.
type StreamEventType string

const (
	// StreamDelta carries a fragment of the generated answer.
	StreamDelta StreamEventType = "delta"
	// StreamDone is terminal and carries the complete answer.
	StreamDone StreamEventType = "done"
	// StreamError is terminal and carries the failure.
	StreamError StreamEventType = "error"
)

// StreamEvent is one event in a streaming answer.
type StreamEvent struct {
	Type   StreamEventType `json:"type"`
	Delta  string          `json:"delta,omitempty"`
	Answer *Answer         `json:"answer,omitempty"`
	Err    error           `json:"-"`
}

// Engine wires the graph store, embedder, LLM, and the three retrieval
// signals into the Service contract.
type Engine struct {
	store     graph.Store
	embedder  embedder.Client
	llm       llm.Client
	extractor llm.Extractor
	pipeline  *ingest.Pipeline

	vector  search.Searcher
	lexical search.Searcher
	graph   search.Searcher

	cfg    Config
	logger *slog.Logger
}

// NewEngine creates an engine over the given collaborators. The extractor
// may be nil, which disables entity extraction and the graph signal's term
// lookup.
func NewEngine(store graph.Store, emb embedder.Client, chat llm.Client, extractor llm.Extractor, cfg Config) (*Engine, error) {
	cfg.applyDefaults()

	pipelineOpts := []ingest.Option{
		ingest.WithSplitter(ingest.NewRecursiveSplitter(cfg.ChunkSize, cfg.ChunkOverlap)),
		ingest.WithLogger(cfg.Logger),
	}
	if cfg.IngestWorkers > 0 {
		pipelineOpts = append(pipelineOpts, ingest.WithPoolSize(cfg.IngestWorkers))
	}
	pipeline, err := ingest.NewPipeline(store, emb, extractor, pipelineOpts...)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		store:     store,
		embedder:  emb,
		llm:       chat,
		extractor: extractor,
		pipeline:  pipeline,
		vector:    search.NewVectorSearcher(emb, store, cfg.VectorMinScore, cfg.Logger),
		lexical:   search.NewLexicalSearcher(store, cfg.Logger),
		cfg:       cfg,
		logger:    cfg.Logger,
	}
	if extractor != nil {
		e.graph = search.NewGraphSearcher(extractor, store, cfg.MaxHops, cfg.Logger)
	}
	return e, nil
}

// Ingest implements Ingestor.
func (e *Engine) Ingest(ctx context.Context, text, name string, metadata map[string]string) (string, error) {
	return e.pipeline.Ingest(ctx, text, name, metadata)
}

// Document implements Ingestor.
func (e *Engine) Document(ctx context.Context, id string) (*types.Document, error) {
	return e.store.GetDocument(ctx, id)
}

// Documents implements Ingestor.
func (e *Engine) Documents(ctx context.Context) ([]*types.Document, error) {
	return e.store.ListDocuments(ctx)
}

// Close implements Service.
func (e *Engine) Close(ctx context.Context) error {
	e.pipeline.Release()
	if e.llm != nil {
		if err := e.llm.Close(); err != nil {
			e.logger.Warn("failed to close llm client", "error", err)
		}
	}
	if e.embedder != nil {
		if err := e.embedder.Close(); err != nil {
			e.logger.Warn("failed to close embedder", "error", err)
		}
	}
	return e.store.Close(ctx)
}

var _ Service = (*Engine)(nil)
