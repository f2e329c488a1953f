package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show provider and index health",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if statusService == nil {
		return errors.New("status service not configured")
	}

	status, err := statusService.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	cmd.Println("Retriva Status")
	cmd.Println("==============")
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, status.EmbeddingConfigured, status.EmbeddingReachable, status.EmbeddingModel)
	cmd.Println()

	cmd.Println("[Generation]")
	printProvider(cmd, status.LLMConfigured, status.LLMReachable, status.LLMModel)
	cmd.Println()

	cmd.Println("[Index]")
	if status.IndexDimensions > 0 {
		cmd.Printf("  Entries:    %d\n", status.IndexEntries)
		cmd.Printf("  Version:    %d\n", status.IndexVersion)
		cmd.Printf("  Dimensions: %d\n", status.IndexDimensions)
		cmd.Printf("  Metric:     %s\n", status.IndexMetric)
		cmd.Printf("  Model tag:  %s\n", status.IndexModelTag)
	} else {
		cmd.Println("  Not open (configure an embedding provider)")
	}
	cmd.Println()

	cmd.Printf("[Documents]\n  Ingested: %d\n", status.Documents)
	return nil
}

func printProvider(cmd *cobra.Command, configured, reachable bool, model string) {
	if !configured {
		cmd.Println("  Not configured. Run 'retriva settings' to set up.")
		return
	}
	cmd.Printf("  Model:     %s\n", model)
	if reachable {
		cmd.Println("  Reachable: yes")
	} else {
		cmd.Println("  Reachable: NO")
	}
}
