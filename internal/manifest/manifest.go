package manifest

import (
	"context"
	"fmt"
	"time"

	"github.com/quantmind-br/adenotifier-go/internal/domain"
	"github.com/quantmind-br/adenotifier-go/internal/utils"
)

// Manifest is a mutable handle to one remote manifest
type Manifest struct {
	ID       string
	State    domain.State
	Params   domain.Parameters
	Batch    *int
	Created  time.Time
	Modified time.Time

	entries       []domain.Entry
	entriesLoaded bool

	key    domain.SourceKey
	client domain.StateClient
	logger *utils.Logger
}

// New creates an unbound handle for the given source lineage
func New(client domain.StateClient, key domain.SourceKey, params domain.Parameters, logger *utils.Logger) *Manifest {
	return &Manifest{
		Params: params,
		key:    key,
		client: client,
		logger: logger.OrNop(),
	}
}

// Key returns the source lineage of the manifest
func (m *Manifest) Key() domain.SourceKey {
	return m.key
}

// Entries returns the entries known to the handle, in insertion order.
// It returns nil until the entries were fetched or the manifest was created.
func (m *Manifest) Entries() []domain.Entry {
	if !m.entriesLoaded {
		return nil
	}
	out := make([]domain.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Create opens a new remote manifest with the handle's shape parameters and
// batch, and binds the handle to it.
func (m *Manifest) Create(ctx context.Context) error {
	record, err := m.client.Create(ctx, m.key, domain.CreateRequest{
		Parameters: m.Params,
		Batch:      m.Batch,
	})
	if err != nil {
		return err
	}

	previous := m.ID
	m.ID = record.ID
	m.State = record.State
	m.Created = record.Created.Time
	m.Modified = record.Modified.Time
	if record.Batch != nil {
		m.Batch = record.Batch
	}
	if m.State == "" {
		m.State = domain.StateOpen
	}
	m.entries = []domain.Entry{}
	m.entriesLoaded = true

	event := m.logger.Debug().Str("manifest_id", m.ID).Str("source", m.key.String())
	if previous != "" {
		event = event.Str("replaces", previous)
	}
	event.Msg("Manifest created")
	return nil
}

// Fetch binds the handle to an existing manifest and loads its state and
// shape. An empty id refreshes the currently bound manifest.
func (m *Manifest) Fetch(ctx context.Context, id string) error {
	if id == "" {
		id = m.ID
	}
	if id == "" {
		return domain.ErrManifestIDMissing
	}

	record, err := m.client.Get(ctx, m.key, id)
	if err != nil {
		return err
	}
	if id != m.ID {
		m.entries = nil
		m.entriesLoaded = false
	}
	m.apply(record)
	if m.ID == "" {
		m.ID = id
	}
	return nil
}

// FetchEntries loads the entries of the bound manifest
func (m *Manifest) FetchEntries(ctx context.Context) ([]domain.Entry, error) {
	if m.ID == "" {
		return nil, domain.ErrManifestIDMissing
	}

	entries, err := m.client.Entries(ctx, m.key, m.ID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	m.entries = entries
	m.entriesLoaded = true
	return m.Entries(), nil
}

// AddEntry appends one entry. An unbound handle creates its manifest first.
func (m *Manifest) AddEntry(ctx context.Context, entry domain.Entry) error {
	if err := m.ensureCreated(ctx); err != nil {
		return err
	}
	if err := m.client.AddEntry(ctx, m.key, m.ID, entry); err != nil {
		return err
	}
	if m.entriesLoaded {
		m.entries = append(m.entries, entry)
	}
	return nil
}

// AddEntries writes all entries in one call, replacing any existing ones.
// An unbound handle creates its manifest first.
func (m *Manifest) AddEntries(ctx context.Context, entries []domain.Entry) error {
	if err := m.ensureCreated(ctx); err != nil {
		return err
	}
	if err := m.client.PutEntries(ctx, m.key, m.ID, entries); err != nil {
		return err
	}
	m.entries = make([]domain.Entry, len(entries))
	copy(m.entries, entries)
	m.entriesLoaded = true
	return nil
}

// Notify transitions the bound manifest to NOTIFIED
func (m *Manifest) Notify(ctx context.Context) error {
	if m.ID == "" {
		return domain.ErrManifestIDMissing
	}
	if err := m.client.Notify(ctx, m.key, m.ID); err != nil {
		return err
	}
	m.State = domain.StateNotified
	m.logger.Debug().Str("manifest_id", m.ID).Str("source", m.key.String()).Msg("Manifest notified")
	return nil
}

// String returns a short description of the handle
func (m *Manifest) String() string {
	id := m.ID
	if id == "" {
		id = "<unbound>"
	}
	return fmt.Sprintf("manifest %s (%s, %s)", id, m.key, m.State)
}

func (m *Manifest) ensureCreated(ctx context.Context) error {
	if m.ID != "" {
		return nil
	}
	return m.Create(ctx)
}

// apply copies the remote state and shape of a record onto the handle
func (m *Manifest) apply(record *domain.Record) {
	m.ID = record.ID
	m.State = record.State
	m.Batch = record.Batch
	m.Created = record.Created.Time
	m.Modified = record.Modified.Time

	params := record.Parameters()
	if params.Format == "" {
		params.Format = m.Params.Format
	}
	m.Params = params
}
