package domain

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mocks/state_client.go -package=mocks

// StateClient performs the remote manifest operations of the Notify API
type StateClient interface {
	// Search lists manifests of a source in the given state, oldest first
	Search(ctx context.Context, key SourceKey, state State) ([]Record, error)
	// Create opens a new manifest
	Create(ctx context.Context, key SourceKey, req CreateRequest) (*Record, error)
	// Get fetches a manifest by id
	Get(ctx context.Context, key SourceKey, id string) (*Record, error)
	// Entries fetches the entries of a manifest in insertion order
	Entries(ctx context.Context, key SourceKey, id string) ([]Entry, error)
	// AddEntry appends one entry to an OPEN manifest
	AddEntry(ctx context.Context, key SourceKey, id string, entry Entry) error
	// PutEntries replaces the entries of an OPEN manifest
	PutEntries(ctx context.Context, key SourceKey, id string, entries []Entry) error
	// Notify transitions an OPEN manifest to NOTIFIED
	Notify(ctx context.Context, key SourceKey, id string) error
}
