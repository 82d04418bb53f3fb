package docgraph

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docgraph-io/docgraph"
	"github.com/docgraph-io/docgraph/pkg/config"
	"github.com/docgraph-io/docgraph/pkg/types"
)

var (
	askScope   []string
	askStream  bool
	askResults int
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question over ingested documents",
	Long: `Ask a question. Evidence is retrieved from the documents in scope and the
answer is generated from it. Without --scope, all processed documents are in
scope.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringSliceVar(&askScope, "scope", nil, "Document IDs to search (default: all processed documents)")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "Stream the answer as it is generated")
	askCmd.Flags().IntVar(&askResults, "results", 0, "Number of evidence items to retrieve")
}

func runAsk(cmd *cobra.Command, args []string) error {
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
	scope := askScope
	if len(scope) == 0 {
		scope, err = processedDocumentIDs(ctx, engine)
		if err != nil {
			return err
		}
	}

	opts := &docgraph.QueryOptions{ResultCount: askResults}
	question := args[0]

	if askStream {
		return streamAnswer(ctx, engine, question, scope, opts)
	}

	answer, err := engine.Ask(ctx, question, scope, opts)
	if err != nil {
		return err
	}

	fmt.Println(answer.Answer)
	if !answer.NoEvidence {
		fmt.Printf("\n(%d evidence items", len(answer.Evidence))
		if len(answer.Evidence) > 0 {
			fmt.Printf(", top score %.3f", answer.Evidence[0].Score)
		}
		fmt.Println(")")
	}
	return nil
}

func streamAnswer(ctx context.Context, engine *docgraph.Engine, question string, scope []string, opts *docgraph.QueryOptions) error {
	events, err := engine.AskStream(ctx, question, scope, opts)
	if err != nil {
		return err
	}

	for event := range events {
		switch event.Type {
		case docgraph.StreamDelta:
			fmt.Print(event.Delta)
		case docgraph.StreamDone:
			fmt.Println()
		case docgraph.StreamError:
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("stream failed: %w", event.Err)
		}
	}
	return nil
}

func processedDocumentIDs(ctx context.Context, engine *docgraph.Engine) ([]string, error) {
	docs, err := engine.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var ids []string
	for _, doc := range docs {
		if doc.Status == types.DocumentProcessed {
			ids = append(ids, doc.ID)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no processed documents; ingest something first")
	}
	return ids, nil
}
