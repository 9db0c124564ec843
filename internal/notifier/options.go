package notifier

import (
	"fmt"
	"strings"

	"github.com/quantmind-br/adenotifier-go/internal/batch"
	"github.com/quantmind-br/adenotifier-go/internal/domain"
	"github.com/quantmind-br/adenotifier-go/internal/utils"
)

// BatchSource selects which path batch numbers are extracted from
type BatchSource string

const (
	// BatchSourceOriginal extracts from the path as received
	BatchSourceOriginal BatchSource = "original"
	// BatchSourceRewritten extracts from the path after path_replace
	BatchSourceRewritten BatchSource = "rewritten"
)

// ParseBatchSource parses a batch source name. Empty means original.
func ParseBatchSource(s string) (BatchSource, error) {
	switch v := BatchSource(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return BatchSourceOriginal, nil
	case BatchSourceOriginal, BatchSourceRewritten:
		return v, nil
	}
	return "", domain.NewConfigurationError("", "notifier.batch_source",
		fmt.Sprintf("unknown value %q (use original or rewritten)", s))
}

// BulkBatchPolicy controls per-entry batch extraction in bulk submissions
type BulkBatchPolicy string

const (
	// BulkBatchAllOrNothing drops every extracted batch when one path fails
	BulkBatchAllOrNothing BulkBatchPolicy = "all_or_nothing"
	// BulkBatchPerEntry only leaves the failing entries without a batch
	BulkBatchPerEntry BulkBatchPolicy = "per_entry"
)

// ParseBulkBatchPolicy parses a bulk batch policy name. Empty means
// all_or_nothing.
func ParseBulkBatchPolicy(s string) (BulkBatchPolicy, error) {
	switch v := BulkBatchPolicy(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return BulkBatchAllOrNothing, nil
	case BulkBatchAllOrNothing, BulkBatchPerEntry:
		return v, nil
	}
	return "", domain.NewConfigurationError("", "notifier.bulk_batch_policy",
		fmt.Sprintf("unknown value %q (use all_or_nothing or per_entry)", s))
}

// Options contains options for creating an Assembler
type Options struct {
	Client          domain.StateClient
	Logger          *utils.Logger
	Compensation    CompensationPolicy
	BatchSource     BatchSource
	BulkBatchPolicy BulkBatchPolicy
	Extractor       *batch.Extractor
}

// DefaultOptions returns default assembler options without a client
func DefaultOptions() Options {
	return Options{
		Compensation:    DefaultCompensationPolicy(),
		BatchSource:     BatchSourceOriginal,
		BulkBatchPolicy: BulkBatchAllOrNothing,
	}
}
