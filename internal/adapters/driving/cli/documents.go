package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage ingested documents",
	Long:  `List, inspect, or remove documents from the corpus.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all ingested documents",
	RunE:  runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

var documentsContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsContent,
}

var documentsRemoveCmd = &cobra.Command{
	Use:   "remove [doc-id]",
	Short: "Remove a document from the corpus and index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsRemove,
}

func init() {
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsContentCmd)
	documentsCmd.AddCommand(documentsRemoveCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if documentStore == nil {
		return errors.New("document store not configured")
	}

	docs, err := documentStore.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested yet. Run 'retriva ingest <path>' to start.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		if docs[i].Title != "" {
			cmd.Printf("    Title: %s\n", docs[i].Title)
		}
		if docs[i].SourceURI != "" {
			cmd.Printf("    Source: %s\n", docs[i].SourceURI)
		}
		if !docs[i].IngestedAt.IsZero() {
			cmd.Printf("    Ingested: %s\n", docs[i].IngestedAt.Format("2006-01-02 15:04:05"))
		}
		cmd.Println()
	}
	cmd.Printf("Total: %d document(s)\n", len(docs))
	return nil
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if documentStore == nil {
		return errors.New("document store not configured")
	}

	doc, err := documentStore.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting document: %w", err)
	}

	chunks, err := documentStore.GetChunks(cmd.Context(), doc.ID)
	if err != nil {
		return fmt.Errorf("getting chunks: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:     %s\n", doc.Title)
	cmd.Printf("  Source:    %s\n", doc.SourceURI)
	cmd.Printf("  Hash:      %s\n", doc.ContentHash)
	cmd.Printf("  Chunks:    %d\n", len(chunks))
	cmd.Printf("  Ingested:  %s\n", doc.IngestedAt.Format("2006-01-02 15:04:05"))

	if len(doc.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		for k, v := range doc.Metadata {
			cmd.Printf("    %s: %v\n", k, v)
		}
	}
	return nil
}

func runDocumentsContent(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if documentStore == nil {
		return errors.New("document store not configured")
	}

	doc, err := documentStore.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting document: %w", err)
	}

	cmd.Println(doc.Content)
	return nil
}

func runDocumentsRemove(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("removing document: %w", err)
	}

	cmd.Printf("Document %s removed.\n", args[0])
	return nil
}
