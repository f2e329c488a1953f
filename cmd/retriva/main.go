// Command retriva is a local retrieval-augmented generation engine.
// It ingests plain-text documents, indexes them for semantic search,
// and answers questions grounded in their content.
package main

import (
	"os"

	"github.com/custodia-labs/retriva/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
