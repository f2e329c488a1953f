package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/retriva/internal/core/ports/driving"
)

var (
	askTopK    int
	askTimeout time.Duration
	askNoCache bool
	askRerank  bool
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question grounded in your documents",
	Long: `Retrieves the most relevant chunks for the question and generates
an answer grounded in them, with citations. Requires both an embedding
provider and an LLM provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to ground on (0 = configured default)")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 30*time.Second, "overall request timeout")
	askCmd.Flags().BoolVar(&askNoCache, "no-cache", false, "bypass the answer cache")
	askCmd.Flags().BoolVar(&askRerank, "rerank", false, "apply the lexical re-ranker")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if queryService == nil {
		return errors.New("query service not configured")
	}

	answer, err := queryService.Ask(cmd.Context(), driving.AskRequest{
		Text:     args[0],
		K:        askTopK,
		Timeout:  askTimeout,
		UseCache: !askNoCache,
		Rerank:   askRerank,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Printf("Sources: %s\n", strings.Join(answer.Citations, ", "))
	}
	cmd.Printf("Model: %s (index v%d)\n", answer.Model, answer.IndexVersion)
	return nil
}
