package docgraph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docgraph-io/docgraph/pkg/config"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file> [file...]",
	Short: "Ingest documents into the knowledge graph",
	Long: `Ingest one or more text files. Each file becomes a document: its text is
split into chunks, embedded, annotated with extracted entities and
relationships, and persisted to the graph store.

The command blocks until every document reaches a terminal status and prints
the resulting document IDs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, flush, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	if flush != nil {
		defer flush()
	}

	engine, err := buildEngine(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	defer engine.Close(context.Background())

	ctx := cmd.Context()
	var failed bool
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		docID, err := engine.Ingest(ctx, string(data), filepath.Base(path), map[string]string{"path": path})
		if err != nil {
			failed = true
			fmt.Fprintf(os.Stderr, "%s: FAILED (%v)\n", path, err)
			if docID != "" {
				fmt.Fprintf(os.Stderr, "  document %s kept in error status\n", docID)
			}
			continue
		}
		fmt.Printf("%s: %s\n", path, docID)
	}

	if failed {
		return fmt.Errorf("one or more documents failed to ingest")
	}
	return nil
}
