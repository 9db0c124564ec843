package source

import "errors"

// Sentinel errors for the source package
var (
	// ErrNoSources indicates the datasource file defines no sources
	ErrNoSources = errors.New("datasource file must contain at least one source")

	// ErrDuplicateID indicates two datasources share the same id
	ErrDuplicateID = errors.New("duplicate datasource id")

	// ErrInvalidFormat indicates the datasource file is not valid YAML or JSON
	ErrInvalidFormat = errors.New("datasource file must be valid YAML or JSON")

	// ErrFileNotFound indicates the datasource file does not exist
	ErrFileNotFound = errors.New("datasource file not found")

	// ErrUnsupportedExt indicates an unsupported file extension
	ErrUnsupportedExt = errors.New("unsupported file extension (use .yaml, .yml, or .json)")
)
