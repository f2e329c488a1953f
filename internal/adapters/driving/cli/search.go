package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

var (
	searchTopK    int
	searchDocs    []string
	searchSources []string
	searchRerank  bool
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Performs semantic similarity search across all indexed chunks and
prints the best matches. No LLM is involved; only an embedding provider
is required.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (0 = configured default)")
	searchCmd.Flags().StringSliceVar(&searchDocs, "document", nil, "restrict to these document IDs")
	searchCmd.Flags().StringSliceVar(&searchSources, "source", nil, "restrict to these source URIs")
	searchCmd.Flags().BoolVar(&searchRerank, "rerank", false, "apply the lexical re-ranker")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if err := requireEmbedding(); err != nil {
		return err
	}
	if queryService == nil {
		return errors.New("query service not configured")
	}

	result, err := queryService.Search(cmd.Context(), domain.Query{
		Text: args[0],
		K:    searchTopK,
		Filters: domain.SearchFilters{
			DocumentIDs: searchDocs,
			SourceURIs:  searchSources,
		},
		Rerank: searchRerank,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(result.Chunks) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (index v%d):\n\n", result.IndexVersion)
	for i, rc := range result.Chunks {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, rc.Chunk.ID, rc.Score)
		cmd.Printf("      Document: %s, chunk %d\n", rc.Chunk.DocumentID, rc.Chunk.Position)
		cmd.Printf("      %s\n", snippet(rc.Chunk.Content, 160))
		cmd.Println()
	}
	return nil
}

// snippet truncates content to a single display line.
func snippet(content string, limit int) string {
	oneline := make([]rune, 0, limit)
	for _, r := range content {
		if r == '\n' || r == '\t' {
			r = ' '
		}
		oneline = append(oneline, r)
		if len(oneline) == limit {
			return string(oneline) + "..."
		}
	}
	return string(oneline)
}
