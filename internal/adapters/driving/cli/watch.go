package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/retriva/internal/logger"
	"github.com/custodia-labs/retriva/internal/sources/filesystem"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest changes",
	Long: `Ingests all supported files under the directory, then keeps watching
it. Created or modified .txt and .md files are re-ingested automatically.
Stops on Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if err := requireEmbedding(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	source, err := filesystem.New(args[0])
	if err != nil {
		return err
	}
	defer source.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bring the corpus up to date before watching.
	docs, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	if len(docs) > 0 {
		cmd.Printf("Ingesting %d existing document(s)...\n", len(docs))
		if _, err := ingestService.IngestAll(ctx, docs); err != nil {
			logger.Warn("Initial ingestion had failures: %v", err)
		}
	}

	changes, watchErrs, err := source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("starting watch: %w", err)
	}

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", args[0])

	for {
		select {
		case <-ctx.Done():
			cmd.Println("\nStopped.")
			return nil

		case doc, ok := <-changes:
			if !ok {
				return nil
			}
			report, err := ingestService.Ingest(ctx, doc)
			if err != nil {
				cmd.Printf("  %s: ingestion failed: %v\n", doc.Title, err)
				continue
			}
			if report.Skipped {
				cmd.Printf("  %s: unchanged\n", doc.Title)
			} else {
				cmd.Printf("  %s: %d chunks (index v%d)\n", doc.Title, report.ChunksCreated, report.IndexVersion)
			}

		case err, ok := <-watchErrs:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}
