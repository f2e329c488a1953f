package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, chunking, retrieval, and other
options. Run without a subcommand to show current settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider",
	Long:  `Configure the provider used to embed documents and queries.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the generation provider",
	Long:  `Configure the LLM used for grounded answers and quizzes.`,
	RunE:  runSettingsLLM,
}

var settingsChunkingCmd = &cobra.Command{
	Use:   "chunking",
	Short: "Configure document chunking",
	RunE:  runSettingsChunking,
}

var settingsRetrievalCmd = &cobra.Command{
	Use:   "retrieval",
	Short: "Configure retrieval defaults",
	RunE:  runSettingsRetrieval,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsChunkingCmd)
	settingsCmd.AddCommand(settingsRetrievalCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := ensureConfig(); err != nil {
		return err
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	printProviderSettings(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	printProviderSettings(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Max chunk size: %d\n", settings.Chunking.MaxChunkSize)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)
	cmd.Printf("  Min chunk size: %d\n", settings.Chunking.MinChunkSize)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Rerank: %t\n", settings.Retrieval.Rerank)
	cmd.Println()

	cmd.Println("[Generation]")
	cmd.Printf("  Max tokens: %d\n", settings.Generation.MaxTokens)
	cmd.Printf("  Temperature: %.2f\n", settings.Generation.Temperature)
	cmd.Printf("  Context budget: %d chars\n", settings.Generation.ContextCharBudget)
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  Enabled: %t\n", settings.Cache.Enabled)
	cmd.Printf("  TTL: %s\n", settings.Cache.TTL)
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Metric: %s\n", settings.Index.Metric)
	cmd.Printf("  Persist: %t\n", settings.Index.Persist)

	return nil
}

func printProviderSettings(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if err := ensureConfig(); err != nil {
		return err
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	provider := providers[idx-1]

	defaults := domain.DefaultEmbeddingModels()
	cmd.Printf("Enter model name [%s]: ", defaults[provider])
	model := readLine(reader)

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	cmd.Print("Validating configuration... ")
	err := settingsService.SetEmbedding(domain.EmbeddingSettings{
		Provider: provider,
		Model:    model,
		APIKey:   apiKey,
	})
	if err != nil {
		cmd.Println("FAILED")
		return fmt.Errorf("embedding configuration failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s\n", provider.Description())
	cmd.Println("Note: changing the embedding model invalidates a persisted index.")
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if err := ensureConfig(); err != nil {
		return err
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	provider := providers[idx-1]

	defaults := domain.DefaultLLMModels()
	cmd.Printf("Enter model name [%s]: ", defaults[provider])
	model := readLine(reader)

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	cmd.Print("Validating configuration... ")
	err := settingsService.SetLLM(domain.LLMSettings{
		Provider: provider,
		Model:    model,
		APIKey:   apiKey,
	})
	if err != nil {
		cmd.Println("FAILED")
		return fmt.Errorf("LLM configuration failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s\n", provider.Description())
	return nil
}

func runSettingsChunking(cmd *cobra.Command, _ []string) error {
	if err := ensureConfig(); err != nil {
		return err
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	current, err := settingsService.Get()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Printf("Max chunk size [%d]: ", current.Chunking.MaxChunkSize)
	maxSize := parseNumber(readLine(reader), current.Chunking.MaxChunkSize)
	cmd.Printf("Overlap [%d]: ", current.Chunking.Overlap)
	overlap := parseNumber(readLine(reader), current.Chunking.Overlap)
	cmd.Printf("Min chunk size [%d]: ", current.Chunking.MinChunkSize)
	minSize := parseNumber(readLine(reader), current.Chunking.MinChunkSize)

	err = settingsService.SetChunking(domain.ChunkingSettings{
		MaxChunkSize: maxSize,
		Overlap:      overlap,
		MinChunkSize: minSize,
	})
	if err != nil {
		return fmt.Errorf("chunking configuration failed: %w", err)
	}

	cmd.Println("Chunking settings saved. They apply to future ingestions only.")
	return nil
}

func runSettingsRetrieval(cmd *cobra.Command, _ []string) error {
	if err := ensureConfig(); err != nil {
		return err
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	current, err := settingsService.Get()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Printf("Top K [%d]: ", current.Retrieval.TopK)
	topK := parseNumber(readLine(reader), current.Retrieval.TopK)
	cmd.Printf("Enable lexical re-ranker [%t]: ", current.Retrieval.Rerank)
	rerank := parseBool(readLine(reader), current.Retrieval.Rerank)

	err = settingsService.SetRetrieval(domain.RetrievalSettings{
		TopK:   topK,
		Rerank: rerank,
	})
	if err != nil {
		return fmt.Errorf("retrieval configuration failed: %w", err)
	}

	cmd.Println("Retrieval settings saved.")
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func parseNumber(input string, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil {
		return defaultVal
	}
	return val
}

func parseBool(input string, defaultVal bool) bool {
	switch strings.ToLower(input) {
	case "y", "yes", "true", "on":
		return true
	case "n", "no", "false", "off":
		return false
	default:
		return defaultVal
	}
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
