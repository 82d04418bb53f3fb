package docgraph

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/docgraph-io/docgraph/pkg/config"
	"github.com/docgraph-io/docgraph/pkg/types"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List documents and their processing status",
	RunE:  runDocuments,
}

func init() {
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, args []string) error {
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

	docs, err := engine.Documents(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println("No documents ingested yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tCHUNKS\tUPLOADED\tERROR")
	for _, doc := range docs {
		errMsg := ""
		if doc.Status == types.DocumentError {
			errMsg = doc.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			doc.ID, doc.Name, doc.Status, doc.ChunkCount,
			doc.UploadedAt.Format("2006-01-02 15:04:05"), errMsg)
	}
	return w.Flush()
}
