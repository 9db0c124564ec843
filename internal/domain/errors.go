package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors
var (
	// ErrNotFound indicates the manifest or source entity does not exist remotely
	ErrNotFound = errors.New("not found")

	// ErrAuthFailed indicates the API key pair was rejected
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates rate limiting was encountered
	ErrRateLimited = errors.New("rate limited")

	// ErrRetriesExhausted indicates the transport retry budget was used up
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrManifestIDMissing indicates an operation needs a created or fetched manifest
	ErrManifestIDMissing = errors.New("manifest id is not set, create or fetch the manifest first")

	// ErrManifestNotOpen indicates the manifest no longer accepts entries
	ErrManifestNotOpen = errors.New("manifest is not open")

	// ErrSourceNotFound indicates no datasource with the requested id is configured
	ErrSourceNotFound = errors.New("source not found")
)

// TransportError represents a failed call to the Notify API
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new TransportError. The cause is derived from
// the status code when err is nil.
func NewTransportError(method, url string, statusCode int, err error) *TransportError {
	if err == nil {
		err = statusError(statusCode)
	}
	return &TransportError{
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

func statusError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthFailed
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return errors.New(http.StatusText(statusCode))
	}
}

// IsRetryableStatus reports whether the Notify API status code is transient
func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusUnauthorized,
		http.StatusNotFound,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsRetryable checks if an error should be retried by the transport
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		// Network failures carry no status
		if transportErr.StatusCode == 0 {
			return true
		}
		return IsRetryableStatus(transportErr.StatusCode)
	}

	return errors.Is(err, ErrRateLimited)
}

// ManifestConflictError indicates a write to a manifest that is no longer OPEN
type ManifestConflictError struct {
	ManifestID string
	Err        error
}

func (e *ManifestConflictError) Error() string {
	return fmt.Sprintf("manifest %s conflict: %v", e.ManifestID, e.Err)
}

func (e *ManifestConflictError) Unwrap() error {
	return e.Err
}

// NewManifestConflictError creates a new ManifestConflictError
func NewManifestConflictError(manifestID string, err error) *ManifestConflictError {
	if err == nil {
		err = ErrManifestNotOpen
	}
	return &ManifestConflictError{
		ManifestID: manifestID,
		Err:        err,
	}
}

// IsConflict reports whether err signals a manifest that closed under us
func IsConflict(err error) bool {
	var conflict *ManifestConflictError
	return errors.As(err, &conflict) || errors.Is(err, ErrManifestNotOpen)
}

// BatchParseError indicates a batch number could not be derived from a path
type BatchParseError struct {
	Path    string
	Pattern string
	Reason  string
	Err     error
}

func (e *BatchParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("batch parse error for %s with pattern %q: %s: %v", e.Path, e.Pattern, e.Reason, e.Err)
	}
	return fmt.Sprintf("batch parse error for %s with pattern %q: %s", e.Path, e.Pattern, e.Reason)
}

func (e *BatchParseError) Unwrap() error {
	return e.Err
}

// NewBatchParseError creates a new BatchParseError
func NewBatchParseError(path, pattern, reason string, err error) *BatchParseError {
	return &BatchParseError{
		Path:    path,
		Pattern: pattern,
		Reason:  reason,
		Err:     err,
	}
}

// ConfigurationError represents an invalid or incomplete datasource configuration
type ConfigurationError struct {
	Source  string
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("configuration error in source %s for %s: %s", e.Source, e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(source, field, message string) *ConfigurationError {
	return &ConfigurationError{
		Source:  source,
		Field:   field,
		Message: message,
	}
}

// IsConfigurationError reports whether err is a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
