package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle state of a manifest in the Notify API
type State string

const (
	StateOpen     State = "OPEN"
	StateNotified State = "NOTIFIED"
	StateFailed   State = "FAILED"
	StateArchived State = "ARCHIVED"

	// StateAny matches manifests in every state when searching
	StateAny State = ""
)

// ParseState parses a state name case-insensitively
func ParseState(s string) (State, error) {
	state := State(strings.ToUpper(strings.TrimSpace(s)))
	switch state {
	case StateOpen, StateNotified, StateFailed, StateArchived, StateAny:
		return state, nil
	}
	return "", fmt.Errorf("unknown manifest state %q", s)
}

// IsTerminal reports whether no further entries can be added in this state
func (s State) IsTerminal() bool {
	return s == StateNotified || s == StateFailed || s == StateArchived
}

// SourceKey identifies a manifest lineage
type SourceKey struct {
	System string
	Entity string
}

func (k SourceKey) String() string {
	return k.System + "." + k.Entity
}

// Entry is one file reference inside a manifest
type Entry struct {
	SourceFile    string `json:"sourceFile"`
	Batch         *int   `json:"batch,omitempty"`
	ContentLength *int64 `json:"contentLength,omitempty"`
}

// NewEntry creates an entry with an optional batch
func NewEntry(sourceFile string, batch *int) Entry {
	return Entry{SourceFile: sourceFile, Batch: batch}
}

// Parameters are the manifest shape parameters. Nil fields are omitted from
// requests so the remote side keeps its defaults.
type Parameters struct {
	Format      string   `json:"format"`
	Columns     []string `json:"columns,omitempty"`
	Compression *string  `json:"compression,omitempty"`
	Delim       *string  `json:"delim,omitempty"`
	Fullscanned *bool    `json:"fullscanned,omitempty"`
	Skiph       *int     `json:"skiph,omitempty"`
}

// CreateRequest is the body of a manifest creation call
type CreateRequest struct {
	Parameters
	Batch *int `json:"batch,omitempty"`
}

// Record is a manifest resource as returned by the Notify API
type Record struct {
	ID          string    `json:"id"`
	State       State     `json:"state"`
	Format      string    `json:"format"`
	Batch       *int      `json:"batch"`
	Columns     []string  `json:"columns"`
	Compression *string   `json:"compression"`
	Delim       *string   `json:"delim"`
	Fullscanned *bool     `json:"fullscanned"`
	Skiph       *int      `json:"skiph"`
	Created     Timestamp `json:"created"`
	Modified    Timestamp `json:"modified"`
}

// Parameters returns the shape parameters carried by the record
func (r *Record) Parameters() Parameters {
	return Parameters{
		Format:      r.Format,
		Columns:     r.Columns,
		Compression: r.Compression,
		Delim:       r.Delim,
		Fullscanned: r.Fullscanned,
		Skiph:       r.Skiph,
	}
}

// Latest returns the index of the most recently created record, preferring
// the later position on equal timestamps. It returns -1 for an empty slice.
func Latest(records []Record) int {
	idx := -1
	for i := range records {
		if idx < 0 || !records[i].Created.Before(records[idx].Created.Time) {
			idx = i
		}
	}
	return idx
}

// timestampLayouts are tried in order when decoding API timestamps
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp is a time decoded leniently from the Notify API. Values without
// a zone are taken as UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", s)
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
