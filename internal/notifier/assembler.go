// Package notifier assembles file entries into ADE Notify API manifests and
// notifies them.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantmind-br/adenotifier-go/internal/batch"
	"github.com/quantmind-br/adenotifier-go/internal/domain"
	"github.com/quantmind-br/adenotifier-go/internal/manifest"
	"github.com/quantmind-br/adenotifier-go/internal/source"
	"github.com/quantmind-br/adenotifier-go/internal/utils"
)

// ErrNoEntries indicates a bulk submission without entries
var ErrNoEntries = errors.New("no entries to add")

// Assembler decides which manifest a file goes to and appends it
type Assembler struct {
	client          domain.StateClient
	logger          *utils.Logger
	compensation    CompensationPolicy
	batchSource     BatchSource
	bulkBatchPolicy BulkBatchPolicy
	extractor       *batch.Extractor
}

// NewAssembler creates a new Assembler
func NewAssembler(opts Options) (*Assembler, error) {
	if opts.Client == nil {
		return nil, errors.New("notifier: state client is required")
	}
	if opts.BatchSource == "" {
		opts.BatchSource = BatchSourceOriginal
	}
	if _, err := ParseBatchSource(string(opts.BatchSource)); err != nil {
		return nil, err
	}
	if opts.BulkBatchPolicy == "" {
		opts.BulkBatchPolicy = BulkBatchAllOrNothing
	}
	if _, err := ParseBulkBatchPolicy(string(opts.BulkBatchPolicy)); err != nil {
		return nil, err
	}
	if opts.Extractor == nil {
		opts.Extractor = batch.NewExtractor()
	}

	return &Assembler{
		client:          opts.Client,
		logger:          opts.Logger.OrNop().WithComponent("assembler"),
		compensation:    opts.Compensation.normalize(),
		batchSource:     opts.BatchSource,
		bulkBatchPolicy: opts.BulkBatchPolicy,
		extractor:       opts.Extractor,
	}, nil
}

// AddToManifest adds one file to the newest OPEN manifest of the source, or
// to a new manifest when there is none or the newest one is full. A failed
// append is compensated by creating a new manifest and appending again.
// In single-file mode every file gets its own manifest, notified at once.
func (a *Assembler) AddToManifest(ctx context.Context, fileURL string, src *source.Datasource) (*manifest.Manifest, error) {
	if err := validateSource(src); err != nil {
		return nil, err
	}

	key := src.Key()
	logger := a.logger.WithSource(src.ID, key.System, key.Entity)
	singleFile := src.SingleFile()

	var candidate string
	if !singleFile {
		records, err := a.client.Search(ctx, key, domain.StateOpen)
		if err != nil {
			return nil, fmt.Errorf("failed to search open manifests: %w", err)
		}
		if idx := domain.Latest(records); idx >= 0 {
			candidate = records[idx].ID
		}
		logger.Info().Strs("open_manifests", recordIDs(records)).Msg("Open manifests")
	}

	m, err := a.selectTarget(ctx, src, candidate, logger)
	if err != nil {
		return nil, err
	}

	rewriter := src.Rewriter()
	entryPath := rewriter.Rewrite(fileURL)
	if rewriter.Enabled() && entryPath != fileURL {
		logger.Debug().Str("file_url", fileURL).Str("entry", entryPath).Msg("Rewrote file path")
	}
	batchFrom := fileURL
	if a.batchSource == BatchSourceRewritten {
		batchFrom = entryPath
	}
	entry := domain.NewEntry(entryPath, a.entryBatch(batchFrom, src, logger))

	err = a.compensation.Run(ctx,
		func(ctx context.Context) error {
			return m.AddEntry(ctx, entry)
		},
		func(ctx context.Context, attempt int, cause error) error {
			logger.Warn().
				Err(cause).
				Str("manifest_id", m.ID).
				Str("entry", entryPath).
				Int("attempt", attempt).
				Msg("Adding entry to manifest failed, retrying with a new manifest")

			fresh := a.newManifest(src)
			if err := fresh.Create(ctx); err != nil {
				return err
			}
			logger.Info().Str("manifest_id", fresh.ID).Str("replaces", m.ID).Msg("Manifest created")
			m = fresh
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add entry %s to manifest: %w", entryPath, err)
	}
	logger.Info().Str("manifest_id", m.ID).Str("entry", entryPath).Msg("Added entry")

	if singleFile {
		if err := m.Notify(ctx); err != nil {
			return nil, fmt.Errorf("failed to notify single file manifest %s: %w", m.ID, err)
		}
		logger.Info().Str("manifest_id", m.ID).Msg("Notified single file manifest")
	}

	return m, nil
}

// selectTarget returns the manifest the next entry goes to
func (a *Assembler) selectTarget(ctx context.Context, src *source.Datasource, candidate string, logger *utils.Logger) (*manifest.Manifest, error) {
	m := a.newManifest(src)

	if candidate == "" {
		if err := m.Create(ctx); err != nil {
			return nil, fmt.Errorf("failed to create manifest: %w", err)
		}
		logger.Info().Str("manifest_id", m.ID).Msg("Manifest created")
		return m, nil
	}

	existing := a.newManifest(src)
	if err := existing.Fetch(ctx, candidate); err != nil {
		return nil, fmt.Errorf("failed to fetch manifest %s: %w", candidate, err)
	}

	if limit, ok := src.MaxFiles(); ok {
		entries, err := existing.FetchEntries(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch entries of manifest %s: %w", candidate, err)
		}
		if len(entries) >= limit {
			logger.Info().
				Str("manifest_id", candidate).
				Int("entries", len(entries)).
				Int("max_files", limit).
				Msg("Max files in manifest reached, creating a new manifest")
			if err := m.Create(ctx); err != nil {
				return nil, fmt.Errorf("failed to create manifest: %w", err)
			}
			logger.Info().Str("manifest_id", m.ID).Msg("Manifest created")
			return m, nil
		}
	}

	logger.Info().Str("manifest_id", existing.ID).Msg("Using open manifest")
	return existing, nil
}

// AddMultipleEntriesToManifest writes all entries to a new manifest in one
// call and notifies it. Entries are rewritten and batched per the source
// configuration; the input slice is not modified. A non-nil batch is set as
// the manifest-level batch.
func (a *Assembler) AddMultipleEntriesToManifest(ctx context.Context, entries []domain.Entry, src *source.Datasource, manifestBatch *int) (*manifest.Manifest, error) {
	if err := validateSource(src); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	key := src.Key()
	logger := a.logger.WithSource(src.ID, key.System, key.Entity)

	prepared := a.prepareEntries(entries, src, logger)

	m := a.newManifest(src)
	if manifestBatch != nil {
		b := *manifestBatch
		m.Batch = &b
	}
	if err := m.Create(ctx); err != nil {
		return nil, fmt.Errorf("failed to create manifest: %w", err)
	}
	logger.Info().Str("manifest_id", m.ID).Msg("Manifest created")

	if err := m.AddEntries(ctx, prepared); err != nil {
		return nil, fmt.Errorf("failed to add entries to manifest %s: %w", m.ID, err)
	}
	logger.Info().Str("manifest_id", m.ID).Int("entries", len(prepared)).Msg("Added entries")

	if err := m.Notify(ctx); err != nil {
		return nil, fmt.Errorf("failed to notify manifest %s: %w", m.ID, err)
	}
	logger.Info().Str("manifest_id", m.ID).Msg("Notified manifest")

	return m, nil
}

// prepareEntries returns rewritten copies of entries with per-entry batches
// applied under the bulk batch policy
func (a *Assembler) prepareEntries(entries []domain.Entry, src *source.Datasource, logger *utils.Logger) []domain.Entry {
	rewriter := src.Rewriter()
	out := make([]domain.Entry, len(entries))
	for i, e := range entries {
		out[i] = e
		out[i].SourceFile = rewriter.Rewrite(e.SourceFile)
	}

	pattern, ok := src.BatchPattern()
	if !ok {
		return out
	}

	batches := make([]*int, len(entries))
	for i := range entries {
		from := entries[i].SourceFile
		if a.batchSource == BatchSourceRewritten {
			from = out[i].SourceFile
		}
		b, err := a.extractor.Extract(from, pattern)
		if err != nil {
			logger.Warn().Err(err).Str("entry", from).Msg("Batch parsing failed")
			if a.bulkBatchPolicy == BulkBatchAllOrNothing {
				logger.Warn().Int("entries", len(entries)).Msg("Dropping per-entry batches of the whole submission")
				return out
			}
			continue
		}
		batches[i] = &b
	}

	for i, b := range batches {
		if b != nil {
			out[i].Batch = b
		}
	}
	return out
}

// entryBatch extracts the batch of a single entry. Failures are logged and
// yield no batch.
func (a *Assembler) entryBatch(path string, src *source.Datasource, logger *utils.Logger) *int {
	pattern, ok := src.BatchPattern()
	if !ok {
		return nil
	}
	b, err := a.extractor.Extract(path, pattern)
	if err != nil {
		logger.Warn().Err(err).Str("entry", path).Msg("Batch parsing failed")
		return nil
	}
	logger.Debug().Int("batch", b).Str("entry", path).Msg("Batch")
	return &b
}

func (a *Assembler) newManifest(src *source.Datasource) *manifest.Manifest {
	return manifest.New(a.client, src.Key(), src.Parameters(), a.logger)
}

func validateSource(src *source.Datasource) error {
	if src == nil {
		return domain.NewConfigurationError("", "source", "is required")
	}
	return src.Validate()
}

func recordIDs(records []domain.Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
