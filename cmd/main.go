package main

import (
	"os"

	"github.com/docgraph-io/docgraph/cmd/docgraph"
)

func main() {
	if err := docgraph.Execute(); err != nil {
		os.Exit(1)
	}
}
