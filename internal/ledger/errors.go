package ledger

import "errors"

var (
	// ErrNotRecorded indicates no submission is recorded for the file
	ErrNotRecorded = errors.New("submission not recorded")

	// ErrCorrupted indicates a stored submission could not be decoded
	ErrCorrupted = errors.New("ledger record is corrupted")

	// ErrVersionMismatch indicates a record written by an incompatible schema
	ErrVersionMismatch = errors.New("ledger record version mismatch")
)
