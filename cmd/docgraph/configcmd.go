package docgraph

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage DocGraph configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long:  `Write a commented starter configuration to $HOME/.docgraph.yaml, or to the path given with --output.`,
	RunE:  runConfigInit,
}

var configOutput string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().StringVar(&configOutput, "output", "", "Output path (default: $HOME/.docgraph.yaml)")
}

// starterConfig mirrors the defaults in pkg/config.
func starterConfig() map[string]any {
	return map[string]any{
		"log": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"server": map[string]any{
			"host": "localhost",
			"port": 8080,
			"mode": "release",
		},
		"database": map[string]any{
			"driver":   "memory",
			"uri":      "bolt://localhost:7687",
			"username": "neo4j",
			"password": "",
			"database": "neo4j",
		},
		"embedding": map[string]any{
			"provider": "openai",
			"model":    "text-embedding-3-small",
			"api_key":  "",
		},
		"llm": map[string]any{
			"provider":    "openai",
			"model":       "gpt-4o-mini",
			"api_key":     "",
			"temperature": 0.1,
			"max_tokens":  2048,
		},
		"retrieval": map[string]any{
			"vector_weight":    0.4,
			"lexical_weight":   0.3,
			"graph_weight":     0.3,
			"vector_min_score": 0.65,
			"max_hops":         3,
			"top_k":            10,
			"result_count":     5,
			"signal_timeout":   "10s",
		},
		"ingest": map[string]any{
			"chunk_size":    1200,
			"chunk_overlap": 200,
			"workers":       4,
		},
		"circuit_breaker": map[string]any{
			"enabled":             false,
			"max_requests":        3,
			"interval":            60,
			"timeout":             30,
			"ready_to_trip_ratio": 0.6,
		},
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configOutput
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".docgraph.yaml")
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists, refusing to overwrite", path)
	}

	data, err := yaml.Marshal(starterConfig())
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Println("Wrote", path)
	return nil
}
