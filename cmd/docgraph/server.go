package docgraph

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docgraph-io/docgraph/pkg/config"
	"github.com/docgraph-io/docgraph/pkg/graph"
	"github.com/docgraph-io/docgraph/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the DocGraph HTTP server",
	Long: `Start the DocGraph HTTP server providing REST API access to document
ingestion and question answering.

Endpoints:
- POST /api/v1/ingest     ingest a document
- POST /api/v1/query      ask a question over a document scope
- GET  /api/v1/documents  list documents and their processing status
- GET  /health            health check

Configuration can be provided through config files, environment variables, or
command-line flags.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("host", "", "Server host")
	serverCmd.Flags().Int("port", 0, "Server port")
	serverCmd.Flags().String("mode", "", "Server mode (debug, release, test)")

	serverCmd.Flags().String("db-driver", "", "Database driver (neo4j, memory)")
	serverCmd.Flags().String("db-uri", "", "Database URI")
	serverCmd.Flags().String("db-username", "", "Database username")
	serverCmd.Flags().String("db-password", "", "Database password")
	serverCmd.Flags().String("db-database", "", "Database name")

	serverCmd.Flags().String("llm-model", "", "LLM model")
	serverCmd.Flags().String("llm-api-key", "", "LLM API key")
	serverCmd.Flags().String("llm-base-url", "", "LLM base URL")

	serverCmd.Flags().String("embedding-model", "", "Embedding model")
	serverCmd.Flags().String("embedding-api-key", "", "Embedding API key")
	serverCmd.Flags().String("embedding-base-url", "", "Embedding base URL")

	serverCmd.Flags().String("telemetry-parquet-path", "", "Directory for Parquet error telemetry")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideServerFlags(cmd, cfg)

	log, flush, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	if flush != nil {
		defer flush()
	}

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	if store.Provider() == graph.ProviderNeo4j {
		if err := store.CreateIndices(context.Background()); err != nil {
			return fmt.Errorf("failed to create store indices: %w", err)
		}
	}

	engine, err := buildEngineWithStore(cfg, store, log)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	defer engine.Close(context.Background())

	srv := server.New(cfg, engine)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("server listening", "host", cfg.Server.Host, "port", cfg.Server.Port)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Info("shutting down", "signal", sig.String())
	case err := <-serverErrChan:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func overrideServerFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		cfg.Server.Host = v
	}
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		cfg.Server.Port = v
	}
	if v, _ := cmd.Flags().GetString("mode"); v != "" {
		cfg.Server.Mode = v
	}
	if v, _ := cmd.Flags().GetString("db-driver"); v != "" {
		cfg.Database.Driver = v
	}
	if v, _ := cmd.Flags().GetString("db-uri"); v != "" {
		cfg.Database.URI = v
	}
	if v, _ := cmd.Flags().GetString("db-username"); v != "" {
		cfg.Database.Username = v
	}
	if v, _ := cmd.Flags().GetString("db-password"); v != "" {
		cfg.Database.Password = v
	}
	if v, _ := cmd.Flags().GetString("db-database"); v != "" {
		cfg.Database.Database = v
	}
	if v, _ := cmd.Flags().GetString("llm-model"); v != "" {
		cfg.LLM.Model = v
	}
	if v, _ := cmd.Flags().GetString("llm-api-key"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v, _ := cmd.Flags().GetString("llm-base-url"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v, _ := cmd.Flags().GetString("embedding-model"); v != "" {
		cfg.Embedding.Model = v
	}
	if v, _ := cmd.Flags().GetString("embedding-api-key"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v, _ := cmd.Flags().GetString("embedding-base-url"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v, _ := cmd.Flags().GetString("telemetry-parquet-path"); v != "" {
		cfg.Telemetry.ParquetPath = v
	}
}
