package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/quantmind-br/adenotifier-go/internal/config"
	"github.com/quantmind-br/adenotifier-go/internal/domain"
	"github.com/quantmind-br/adenotifier-go/internal/ledger"
	"github.com/quantmind-br/adenotifier-go/internal/manifest"
	"github.com/quantmind-br/adenotifier-go/internal/notifier"
	"github.com/quantmind-br/adenotifier-go/internal/notifyapi"
	"github.com/quantmind-br/adenotifier-go/internal/source"
	"github.com/quantmind-br/adenotifier-go/internal/utils"
	"github.com/spf13/afero"
)

// ErrEmptyFileURL is returned for blank file URLs
var ErrEmptyFileURL = errors.New("file url is empty")

// App coordinates datasources, the Notify API client and the ledger
type App struct {
	fs        afero.Fs
	sources   *source.Set
	assembler *notifier.Assembler
	notifier  *notifier.Notifier
	ledger    ledger.Ledger
	logger    *utils.Logger
}

// Options contains options for creating an App
type Options struct {
	Config  *config.Config
	Verbose bool
	// Fs is where datasource and entries files are read from; defaults to
	// the operating system
	Fs afero.Fs
	// Client overrides the HTTP client built from Config.API
	Client domain.StateClient
	// Ledger overrides the ledger built from Config.Ledger
	Ledger    ledger.Ledger
	LogOutput io.Writer
}

// FileResult is the outcome of adding one file
type FileResult struct {
	FileURL    string
	ManifestID string
	Skipped    bool
	Err        error
}

// AddOptions controls AddFiles
type AddOptions struct {
	// SkipSubmitted skips files the ledger already knows about
	SkipSubmitted bool
	// ContinueOnError keeps going after a failed file
	ContinueOnError bool
	// Progress receives a progress bar when set
	Progress io.Writer
}

// New creates a new App
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := utils.NewLogger(utils.LoggerOptions{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  opts.LogOutput,
		Verbose: opts.Verbose,
	})
	logger.Debug().Object("api", cfg.API).Str("sources_file", cfg.SourcesFile).Msg("Configuration loaded")

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	sources, err := source.NewLoader(fs).Load(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load datasources: %w", err)
	}

	client := opts.Client
	if client == nil {
		client, err = notifyapi.NewClient(notifyapi.ClientOptions{
			BaseURL:      cfg.API.BaseURL,
			APIKey:       cfg.API.APIKey,
			APIKeySecret: cfg.API.APIKeySecret,
			Timeout:      cfg.API.Timeout,
			Retry: notifyapi.RetrierOptions{
				MaxRetries:      cfg.Retry.MaxRetries,
				InitialInterval: cfg.Retry.InitialInterval,
				MaxInterval:     cfg.Retry.MaxInterval,
				Multiplier:      cfg.Retry.Multiplier,
			},
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
	}

	batchSource, err := notifier.ParseBatchSource(cfg.Notifier.BatchSource)
	if err != nil {
		return nil, err
	}
	bulkPolicy, err := notifier.ParseBulkBatchPolicy(cfg.Notifier.BulkBatchPolicy)
	if err != nil {
		return nil, err
	}

	assemblerOpts := notifier.DefaultOptions()
	assemblerOpts.Client = client
	assemblerOpts.Logger = logger
	assemblerOpts.Compensation.MaxCompensations = cfg.Notifier.MaxCompensations
	assemblerOpts.BatchSource = batchSource
	assemblerOpts.BulkBatchPolicy = bulkPolicy

	assembler, err := notifier.NewAssembler(assemblerOpts)
	if err != nil {
		return nil, err
	}

	n, err := notifier.NewNotifier(client, logger)
	if err != nil {
		return nil, err
	}

	l := opts.Ledger
	if l == nil {
		l, err = openLedger(cfg.Ledger, logger)
		if err != nil {
			return nil, err
		}
	}

	return &App{
		fs:        fs,
		sources:   sources,
		assembler: assembler,
		notifier:  n,
		ledger:    l,
		logger:    logger,
	}, nil
}

func openLedger(cfg config.LedgerConfig, logger *utils.Logger) (ledger.Ledger, error) {
	if !cfg.Enabled {
		return ledger.NewNopLedger(), nil
	}
	if cfg.Backend == config.LedgerBackendRedis {
		l, err := ledger.NewRedisLedger(cfg.RedisURL, cfg.TTL, logger)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	l, err := ledger.NewBadgerLedger(ledger.Options{
		Directory: cfg.Directory,
		InMemory:  cfg.InMemory,
		TTL:       cfg.TTL,
	}, logger)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Close releases the ledger
func (a *App) Close() error {
	if a.ledger != nil {
		return a.ledger.Close()
	}
	return nil
}

// Sources returns the configured datasources in file order
func (a *App) Sources() []source.Datasource {
	return a.sources.All()
}

// Source returns the datasource with the given id
func (a *App) Source(id string) (*source.Datasource, error) {
	return a.sources.Get(id)
}

// AddFiles adds each file to a manifest of the datasource, one at a time
func (a *App) AddFiles(ctx context.Context, sourceID string, fileURLs []string, opts AddOptions) ([]FileResult, error) {
	src, err := a.sources.Get(sourceID)
	if err != nil {
		return nil, err
	}
	logger := a.logger.WithSource(src.ID, src.Attributes.SourceSystem, src.Attributes.SourceEntity)

	advance := func() {}
	if opts.Progress != nil {
		bar := utils.NewProgressBar(len(fileURLs), utils.DescAdding, opts.Progress)
		advance = func() { _ = bar.Add(1) }
	}

	results := make([]FileResult, 0, len(fileURLs))
	var failures []error

	for _, fileURL := range fileURLs {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}

		result := a.addFile(ctx, src, fileURL, opts.SkipSubmitted, logger)
		results = append(results, result)
		advance()

		if result.Err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", fileURL, result.Err))
			if !opts.ContinueOnError {
				break
			}
		}
	}

	if len(failures) > 0 {
		return results, fmt.Errorf("completed with %d/%d failures: %w", len(failures), len(fileURLs), errors.Join(failures...))
	}
	return results, nil
}

func (a *App) addFile(ctx context.Context, src *source.Datasource, fileURL string, skipSubmitted bool, logger *utils.Logger) FileResult {
	result := FileResult{FileURL: fileURL}

	if strings.TrimSpace(fileURL) == "" {
		result.Err = ErrEmptyFileURL
		return result
	}
	logger.Debug().Str("file_url", fileURL).Str("storage", string(DetectStorage(fileURL))).Msg("Adding file")

	if skipSubmitted {
		sub, err := a.ledger.Get(ctx, src.ID, fileURL)
		switch {
		case err == nil:
			logger.Info().
				Str("file_url", fileURL).
				Str("manifest_id", sub.ManifestID).
				Msg("File already submitted, skipping")
			result.Skipped = true
			result.ManifestID = sub.ManifestID
			return result
		case !errors.Is(err, ledger.ErrNotRecorded):
			logger.Warn().Err(err).Str("file_url", fileURL).Msg("Ledger lookup failed")
		}
	}

	m, err := a.assembler.AddToManifest(ctx, fileURL, src)
	if err != nil {
		logger.Error().Err(err).Str("file_url", fileURL).Msg("Failed to add file")
		result.Err = err
		return result
	}

	result.ManifestID = m.ID
	logger.Info().Str("file_url", fileURL).Str("manifest_id", m.ID).Msg("File added")

	a.record(ctx, src.ID, fileURL, addedEntry(m, src.Rewriter().Rewrite(fileURL)), m.ID)
	return result
}

// AddEntries creates one manifest holding the given entries and notifies it
func (a *App) AddEntries(ctx context.Context, sourceID string, entries []domain.Entry, manifestBatch *int) (*manifest.Manifest, error) {
	src, err := a.sources.Get(sourceID)
	if err != nil {
		return nil, err
	}

	m, err := a.assembler.AddMultipleEntriesToManifest(ctx, entries, src, manifestBatch)
	if err != nil {
		return nil, err
	}

	a.logger.WithSource(src.ID, src.Attributes.SourceSystem, src.Attributes.SourceEntity).Info().
		Str("manifest_id", m.ID).
		Int("entries", len(entries)).
		Msg("Manifest notified")

	stored := m.Entries()
	for i, e := range entries {
		if i < len(stored) {
			a.record(ctx, src.ID, e.SourceFile, stored[i], m.ID)
		}
	}
	return m, nil
}

// AddEntriesFromFile reads entries from a file and passes them to AddEntries
func (a *App) AddEntriesFromFile(ctx context.Context, sourceID, path string, manifestBatch *int) (*manifest.Manifest, error) {
	entries, err := ReadEntries(a.fs, path)
	if err != nil {
		return nil, err
	}
	return a.AddEntries(ctx, sourceID, entries, manifestBatch)
}

// Notify notifies every open manifest of the datasource
func (a *App) Notify(ctx context.Context, sourceID string) ([]*manifest.Manifest, error) {
	src, err := a.sources.Get(sourceID)
	if err != nil {
		return nil, err
	}
	return a.notifier.NotifyManifests(ctx, src)
}

// NotifyAll notifies the open manifests of every datasource in file order
func (a *App) NotifyAll(ctx context.Context) ([]*manifest.Manifest, error) {
	var (
		all      []*manifest.Manifest
		failures []error
	)
	sources := a.sources.All()
	for i := range sources {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}
		notified, err := a.notifier.NotifyManifests(ctx, &sources[i])
		all = append(all, notified...)
		if err != nil {
			a.logger.Error().Err(err).Str("source", sources[i].ID).Msg("Failed to notify source")
			failures = append(failures, fmt.Errorf("%s: %w", sources[i].ID, err))
		}
	}

	if len(failures) > 0 {
		return all, fmt.Errorf("completed with %d/%d failures: %w", len(failures), len(sources), errors.Join(failures...))
	}
	return all, nil
}

// Submissions lists what the ledger recorded for the datasource
func (a *App) Submissions(ctx context.Context, sourceID string) ([]ledger.Submission, error) {
	if _, err := a.sources.Get(sourceID); err != nil {
		return nil, err
	}
	return a.ledger.List(ctx, sourceID)
}

func (a *App) record(ctx context.Context, sourceID, fileURL string, entry domain.Entry, manifestID string) {
	sub := ledger.NewSubmission(sourceID, fileURL, entry.SourceFile, manifestID, entry.Batch)
	if err := a.ledger.Record(ctx, sub); err != nil {
		a.logger.Warn().Err(err).Str("file_url", fileURL).Msg("Failed to record submission")
	}
}

// addedEntry finds the entry written for path. Handles bound to an existing
// manifest have no entries loaded, so the bare path is returned.
func addedEntry(m *manifest.Manifest, path string) domain.Entry {
	entries := m.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].SourceFile == path {
			return entries[i]
		}
	}
	return domain.Entry{SourceFile: path}
}
