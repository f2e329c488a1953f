package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/sources/filesystem"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest documents into the index",
	Long: `Chunks, embeds, and indexes plain-text documents.

Each path may be a .txt or .md file, or a directory that is walked
recursively. Re-ingesting unchanged content is a no-op.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if err := requireEmbedding(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	var docs []domain.Document
	for _, path := range args {
		loaded, err := loadPath(path)
		if err != nil {
			return err
		}
		docs = append(docs, loaded...)
	}
	if len(docs) == 0 {
		cmd.Println("No supported documents found.")
		return nil
	}

	cmd.Printf("Ingesting %d document(s)...\n", len(docs))

	reports, err := ingestService.IngestAll(cmd.Context(), docs)
	for _, report := range reports {
		if report.Skipped {
			cmd.Printf("  %s: unchanged, skipped\n", report.DocumentID)
			continue
		}
		cmd.Printf("  %s: %d chunks in %s\n",
			report.DocumentID, report.ChunksCreated, report.Duration.Round(time.Millisecond))
	}
	if err != nil {
		return fmt.Errorf("some documents failed: %w", err)
	}

	cmd.Printf("Done. %d document(s) processed.\n", len(reports))
	return nil
}

// loadPath reads a file or directory into documents.
func loadPath(path string) ([]domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if info.IsDir() {
		source, err := filesystem.New(path)
		if err != nil {
			return nil, err
		}
		defer source.Close() //nolint:errcheck
		return source.Load(context.Background())
	}

	return loadFile(path)
}

// loadFile reads a single supported file as one document.
func loadFile(path string) ([]domain.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
	default:
		return nil, fmt.Errorf("unsupported file type: %s (want .txt or .md)", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return []domain.Document{{
		ID:        domain.HashContent("file:" + abs)[:16],
		SourceURI: "file://" + abs,
		Title:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Content:   string(data),
	}}, nil
}
