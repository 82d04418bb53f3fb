package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"

	"github.com/docgraph-io/docgraph/pkg/embedder"
	"github.com/docgraph-io/docgraph/pkg/graph"
	"github.com/docgraph-io/docgraph/pkg/llm"
	"github.com/docgraph-io/docgraph/pkg/types"
)

// chunkPersister is the slice of the graph store the pipeline writes through.
type chunkPersister interface {
	graph.DocumentStore
	graph.ChunkStore
}

// Pipeline ingests documents: split, embed, extract, persist. Embedding and
// persistence are mandatory per chunk; entity extraction is best effort and
// its failure only clears the chunk's HasEntities flag.
type Pipeline struct {
	store     chunkPersister
	embedder  embedder.Client
	extractor llm.Extractor
	splitter  Splitter
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent chunk processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithSplitter overrides the default recursive character splitter.
func WithSplitter(splitter Splitter) Option {
	return func(p *Pipeline) error {
		if splitter != nil {
			p.splitter = splitter
		}
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger != nil {
			p.logger = logger
		}
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(store chunkPersister, embedder embedder.Client, extractor llm.Extractor, opts ...Option) (*Pipeline, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:     store,
		embedder:  embedder,
		extractor: extractor,
		splitter:  NewRecursiveSplitter(DefaultChunkSize, DefaultChunkOverlap),
		pool:      pool,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Ingest processes one document and blocks until every chunk has settled.
// The returned document ID is valid even when ingestion fails; the failure
// message is captured on the document.
func (p *Pipeline) Ingest(ctx context.Context, text, name string, metadata map[string]string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: document text is empty", types.ErrInvalidInput)
	}
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: document text is not valid UTF-8", types.ErrInvalidInput)
	}

	pieces, err := p.splitter.Split(text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidInput, err)
	}
	if len(pieces) == 0 {
		return "", fmt.Errorf("%w: document produced no chunks", types.ErrInvalidInput)
	}

	doc := types.NewDocument(name, metadata)
	if err := p.store.CreateDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}

	p.logger.Info("ingesting document", "document_id", doc.ID, "name", name, "chunks", len(pieces))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	recordErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for i, piece := range pieces {
		chunk := types.NewChunk(doc.ID, i, piece)
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := p.processChunk(ctx, chunk); err != nil {
				recordErr(err)
			}
		}
		if err := p.pool.Submit(task); err != nil {
			wg.Done()
			recordErr(fmt.Errorf("failed to submit chunk %d: %w", i, err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		if statusErr := p.store.SetDocumentStatus(ctx, doc.ID, types.DocumentError, firstErr.Error()); statusErr != nil {
			p.logger.Error("failed to record document error status", "document_id", doc.ID, "error", statusErr)
		}
		return doc.ID, fmt.Errorf("%w: %v", types.ErrIngestionFailed, firstErr)
	}

	if err := p.store.SetDocumentStatus(ctx, doc.ID, types.DocumentProcessed, ""); err != nil {
		return doc.ID, fmt.Errorf("failed to mark document processed: %w", err)
	}
	p.logger.Info("document persisted", "document_id", doc.ID, "chunks", len(pieces))
	return doc.ID, nil
}

// processChunk runs the mandatory and best-effort steps for one chunk. The
// chunk, its entities, and its relationships are persisted in one write.
func (p *Pipeline) processChunk(ctx context.Context, chunk *types.Chunk) error {
	embedding, err := p.embedder.EmbedSingle(ctx, chunk.Text)
	if err != nil {
		return fmt.Errorf("embedding chunk %d failed: %w", chunk.Index, err)
	}
	chunk.Embedding = embedding

	var entities []types.Entity
	var relationships []types.Relationship
	if p.extractor != nil {
		extraction, err := p.extractor.Extract(ctx, chunk.Text)
		if err != nil {
			p.logger.Warn("entity extraction failed, keeping chunk without entities",
				"document_id", chunk.DocumentID, "chunk", chunk.Index, "error", err)
		} else if extraction != nil {
			entities = extraction.Entities
			relationships = extraction.Relationships
			chunk.HasEntities = len(entities) > 0
		}
	}

	if err := p.store.PersistChunk(ctx, chunk, entities, relationships); err != nil {
		return fmt.Errorf("persisting chunk %d failed: %w", chunk.Index, err)
	}
	return nil
}

// Release frees the worker pool. The pipeline must not be used afterwards.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
