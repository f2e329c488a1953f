// Package cli provides the retriva command line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/retriva/internal/adapters/driven/ai"
	"github.com/custodia-labs/retriva/internal/adapters/driven/config/file"
	"github.com/custodia-labs/retriva/internal/adapters/driven/index/memory"
	indexsqlite "github.com/custodia-labs/retriva/internal/adapters/driven/index/sqlite"
	storagefile "github.com/custodia-labs/retriva/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/retriva/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/retriva/internal/chunker"
	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
	"github.com/custodia-labs/retriva/internal/core/services"
	"github.com/custodia-labs/retriva/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services the commands run against. Wired lazily by ensureServices so
// lightweight commands (version, settings) don't open the index.
var (
	settingsService driving.SettingsService
	ingestService   driving.IngestService
	queryService    driving.QueryService
	statusService   driving.StatusService
	progressService driving.ProgressService
	documentStore   driven.DocumentStore
	appSettings     *domain.AppSettings

	verbose bool
	closers []io.Closer

	configOnce  sync.Once
	configErr   error
	serviceOnce sync.Once
	serviceErr  error
)

var rootCmd = &cobra.Command{
	Use:   "retriva",
	Short: "Local retrieval-augmented question answering",
	Long: `Retriva ingests your plain-text documents, indexes them for
semantic search, and answers questions grounded in what you stored.

Start with 'retriva settings' to configure providers, then
'retriva ingest <path>' to build your corpus and 'retriva ask'
to query it.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute(buildVersion string) error {
	if buildVersion != "" {
		version = buildVersion
	}
	defer closeAll()
	return rootCmd.Execute()
}

func closeAll() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i].Close() //nolint:errcheck
	}
	closers = nil
}

// ensureConfig wires the config store and settings service.
func ensureConfig() error {
	configOnce.Do(func() {
		if settingsService != nil {
			return
		}
		configStore, err := file.NewConfigStore("")
		if err != nil {
			configErr = fmt.Errorf("opening config: %w", err)
			return
		}
		settingsService = services.NewSettingsService(configStore, ai.NewConfigValidator())
	})
	return configErr
}

// ensureServices wires the full pipeline: providers, index, stores, and
// the core services. Safe to call from every command that needs them.
func ensureServices() error {
	if err := ensureConfig(); err != nil {
		return err
	}

	serviceOnce.Do(func() {
		if queryService != nil {
			// Already injected, e.g. by tests.
			return
		}
		serviceErr = buildServices()
	})
	return serviceErr
}

func buildServices() error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	appSettings = settings

	// Providers are created without an upfront ping; reachability
	// problems surface as classified errors on first use, and the
	// status command reports them without failing.
	embedder, err := ai.CreateEmbeddingGateway(&settings.Embedding)
	if err != nil {
		return fmt.Errorf("%w. Run 'retriva settings embedding' to fix", err)
	}
	if embedder != nil {
		closers = append(closers, embedder)
	}

	llm, err := ai.CreateLLMGateway(&settings.LLM)
	if err != nil {
		return fmt.Errorf("%w. Run 'retriva settings llm' to fix", err)
	}
	if llm != nil {
		closers = append(closers, llm)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	closers = append(closers, store)
	documentStore = store.DocumentStore()

	var index driven.VectorIndex
	if embedder != nil {
		index, err = openIndex(settings, embedder)
		if err != nil {
			return err
		}
		closers = append(closers, index)
	}

	ch, err := chunker.New(
		chunker.WithMaxChunkSize(settings.Chunking.MaxChunkSize),
		chunker.WithOverlap(settings.Chunking.Overlap),
		chunker.WithMinChunkSize(settings.Chunking.MinChunkSize),
	)
	if err != nil {
		return fmt.Errorf("configuring chunker: %w", err)
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("opening prompt store: %w", err)
	}

	ingestService = services.NewIngestService(ch, embedder, index, documentStore)
	queryService = services.NewQueryService(services.QueryConfig{
		Embedder:   embedder,
		Index:      index,
		Documents:  documentStore,
		LLM:        llm,
		Prompts:    prompts,
		Retrieval:  settings.Retrieval,
		Generation: settings.Generation,
		Cache:      settings.Cache,
	})
	statusService = services.NewStatusService(embedder, llm, index, documentStore, *settings)

	progressStore, err := storagefile.NewProgressStore("")
	if err != nil {
		return fmt.Errorf("opening progress store: %w", err)
	}
	progressService = services.NewProgressService(progressStore, llm, prompts, settings.Generation)

	return nil
}

// openIndex opens the configured vector index, persistent by default.
func openIndex(settings *domain.AppSettings, embedder driven.EmbeddingService) (driven.VectorIndex, error) {
	if !settings.Index.Persist {
		idx, err := memory.New(memory.Config{
			Dimensions: embedder.Dimensions(),
			Metric:     settings.Index.Metric,
			ModelTag:   embedder.ModelName(),
		})
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
		return idx, nil
	}

	idx, err := indexsqlite.Open(settings.Index.Path, indexsqlite.Config{
		Dimensions: embedder.Dimensions(),
		Metric:     settings.Index.Metric,
		ModelTag:   embedder.ModelName(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrIndexModelMismatch) {
			return nil, fmt.Errorf("%w. The stored index was built with a different "+
				"embedding configuration; remove it or restore the old settings", err)
		}
		return nil, fmt.Errorf("opening index: %w", err)
	}
	return idx, nil
}

// requireEmbedding fails fast when no embedding provider is configured.
func requireEmbedding() error {
	if appSettings != nil && !appSettings.Embedding.IsConfigured() {
		return errors.New("no embedding provider configured. Run 'retriva settings embedding' first")
	}
	return nil
}
