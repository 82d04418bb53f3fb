package docgraph

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/docgraph-io/docgraph"
	"github.com/docgraph-io/docgraph/pkg/alert"
	"github.com/docgraph-io/docgraph/pkg/config"
	"github.com/docgraph-io/docgraph/pkg/embedder"
	"github.com/docgraph-io/docgraph/pkg/graph"
	"github.com/docgraph-io/docgraph/pkg/llm"
	"github.com/docgraph-io/docgraph/pkg/logger"
	"github.com/docgraph-io/docgraph/pkg/search"
	"github.com/docgraph-io/docgraph/pkg/telemetry"
)

// setupLogger builds the console logger, layering the Parquet error sink on
// top when a telemetry path is configured. The returned flush function is nil
// when telemetry is disabled.
func setupLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	level := parseLevel(cfg.Log.Level)
	handler := logger.NewColorHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if cfg.Telemetry.ParquetPath == "" {
		return slog.New(handler), nil, nil
	}

	parquetHandler, err := telemetry.NewParquetHandler(handler, cfg.Telemetry.ParquetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	return slog.New(parquetHandler), func() { _ = parquetHandler.Flush() }, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildEngine wires the configured store, embedder, and LLM into an engine.
func buildEngine(cfg *config.Config, log *slog.Logger) (*docgraph.Engine, error) {
	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	return buildEngineWithStore(cfg, store, log)
}

func buildEngineWithStore(cfg *config.Config, store graph.Store, log *slog.Logger) (*docgraph.Engine, error) {
	var alerter alert.Alerter = &alert.NoOpAlerter{}
	if cfg.Alert.Enabled {
		alerter = alert.NewEmailAlerter(cfg.Alert)
	}

	var emb embedder.Client = embedder.NewOpenAIEmbedder(cfg.Embedding.APIKey, embedder.Config{
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if cfg.CircuitBreaker.Enabled {
		emb = embedder.NewCircuitBreakerClient(emb, cfg.CircuitBreaker, alerter, "embedder")
	}

	var chat llm.Client = llm.NewOpenAIClient(cfg.LLM.APIKey, llm.Config{
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if cfg.CircuitBreaker.Enabled {
		chat = llm.NewCircuitBreakerClient(chat, cfg.CircuitBreaker, alerter, "llm")
	}

	extractor := llm.NewLLMExtractor(chat)

	return docgraph.NewEngine(store, emb, chat, extractor, docgraph.Config{
		Weights: search.Weights{
			Vector:  cfg.Retrieval.VectorWeight,
			Lexical: cfg.Retrieval.LexicalWeight,
			Graph:   cfg.Retrieval.GraphWeight,
		},
		VectorMinScore: cfg.Retrieval.VectorMinScore,
		MaxHops:        cfg.Retrieval.MaxHops,
		TopK:           cfg.Retrieval.TopK,
		ResultCount:    cfg.Retrieval.ResultCount,
		SignalTimeout:  cfg.Retrieval.SignalTimeout,
		ChunkSize:      cfg.Ingest.ChunkSize,
		ChunkOverlap:   cfg.Ingest.ChunkOverlap,
		IngestWorkers:  cfg.Ingest.Workers,
		Logger:         log,
	})
}

func buildStore(cfg *config.Config) (graph.Store, error) {
	switch cfg.Database.Driver {
	case "neo4j":
		return graph.NewNeo4jStore(cfg.Database.URI, cfg.Database.Username, cfg.Database.Password, cfg.Database.Database)
	case "memory", "":
		return graph.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
