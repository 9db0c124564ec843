package app

import (
	"strings"
)

// StorageType is the kind of storage a file URL points at
type StorageType string

const (
	StorageS3      StorageType = "s3"
	StorageAzure   StorageType = "azure"
	StorageGCS     StorageType = "gcs"
	StorageHTTP    StorageType = "http"
	StorageLocal   StorageType = "local"
	StorageUnknown StorageType = "unknown"
)

// DetectStorage determines the storage of a file URL from its scheme and host
func DetectStorage(fileURL string) StorageType {
	lower := strings.ToLower(strings.TrimSpace(fileURL))
	if lower == "" {
		return StorageUnknown
	}

	switch {
	case strings.HasPrefix(lower, "s3://"), strings.HasPrefix(lower, "s3a://"):
		return StorageS3
	case strings.HasPrefix(lower, "azure://"),
		strings.HasPrefix(lower, "abfs://"), strings.HasPrefix(lower, "abfss://"),
		strings.HasPrefix(lower, "wasb://"), strings.HasPrefix(lower, "wasbs://"):
		return StorageAzure
	case strings.HasPrefix(lower, "gs://"), strings.HasPrefix(lower, "gcs://"):
		return StorageGCS
	}

	// Cloud storage served over HTTPS
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		switch {
		case strings.Contains(lower, ".blob.core.windows.net"),
			strings.Contains(lower, ".dfs.core.windows.net"):
			return StorageAzure
		case strings.Contains(lower, ".amazonaws.com"):
			return StorageS3
		case strings.Contains(lower, "storage.googleapis.com"):
			return StorageGCS
		}
		return StorageHTTP
	}

	if strings.HasPrefix(lower, "file://") || strings.HasPrefix(lower, "/") {
		return StorageLocal
	}

	if strings.Contains(lower, "://") {
		return StorageUnknown
	}
	return StorageLocal
}
