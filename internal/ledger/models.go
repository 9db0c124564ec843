package ledger

import "time"

// SchemaVersion is the version of stored submission records
const SchemaVersion = 1

// Submission records that a file was added to a manifest
type Submission struct {
	Version     int       `json:"version"`
	Source      string    `json:"source"`
	FileURL     string    `json:"file_url"`
	SourceFile  string    `json:"source_file"`
	ManifestID  string    `json:"manifest_id"`
	Batch       *int      `json:"batch,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewSubmission creates a submission stamped with the current time
func NewSubmission(source, fileURL, sourceFile, manifestID string, batch *int) Submission {
	return Submission{
		Version:     SchemaVersion,
		Source:      source,
		FileURL:     fileURL,
		SourceFile:  sourceFile,
		ManifestID:  manifestID,
		Batch:       batch,
		SubmittedAt: time.Now().UTC(),
	}
}

// Options contains ledger configuration options
type Options struct {
	Directory string
	InMemory  bool
	// TTL expires records after the given duration; zero keeps them forever
	TTL time.Duration
}

// DefaultOptions returns default ledger options
func DefaultOptions() Options {
	return Options{}
}
