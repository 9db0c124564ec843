package batch

import (
	"errors"
	"sync"
	"testing"

	"github.com/quantmind-br/adenotifier-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		want    int
		wantErr string
	}{
		{
			name:    "date groups are concatenated",
			path:    "s3://bucket/raw/20230915/file.csv",
			pattern: `(\d{4})(\d{2})(\d{2})`,
			want:    20230915,
		},
		{
			name:    "groups separated in the path",
			path:    "abfss://container/orders/2024/03/07/part-0.parquet",
			pattern: `/(\d{4})/(\d{2})/(\d{2})/`,
			want:    20240307,
		},
		{
			name:    "single group",
			path:    "https://storage/landing/batch_42.json",
			pattern: `batch_(\d+)`,
			want:    42,
		},
		{
			name:    "first match wins",
			path:    "s3://b/batch_7/batch_9.csv",
			pattern: `batch_(\d+)`,
			want:    7,
		},
		{
			name:    "no match",
			path:    "s3://bucket/raw/file.csv",
			pattern: `(\d{8})`,
			wantErr: "pattern did not match",
		},
		{
			name:    "non numeric capture",
			path:    "s3://bucket/raw/abc/file.csv",
			pattern: `raw/(\w+)/`,
			wantErr: "is not an integer",
		},
		{
			name:    "optional group not participating",
			path:    "s3://bucket/2023.csv",
			pattern: `(\d{4})(-\d{2})?`,
			wantErr: "did not participate",
		},
		{
			name:    "no capturing groups",
			path:    "s3://bucket/2023.csv",
			pattern: `\d{4}`,
			wantErr: "no capturing groups",
		},
		{
			name:    "invalid pattern",
			path:    "s3://bucket/2023.csv",
			pattern: `(\d{4}`,
			wantErr: "invalid pattern",
		},
	}

	extractor := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractor.Extract(tt.path, tt.pattern)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				var parseErr *domain.BatchParseError
				require.True(t, errors.As(err, &parseErr))
				assert.Equal(t, tt.path, parseErr.Path)
				assert.Equal(t, tt.pattern, parseErr.Pattern)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractor_Idempotent(t *testing.T) {
	extractor := NewExtractor()
	path := "s3://bucket/raw/20230915/file.csv"
	pattern := `(\d{4})(\d{2})(\d{2})`

	first, err := extractor.Extract(path, pattern)
	require.NoError(t, err)
	second, err := extractor.Extract(path, pattern)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 20230915, first)
}

func TestExtractor_ConcurrentUse(t *testing.T) {
	extractor := NewExtractor()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := extractor.Extract("x/20240101/y", `(\d{8})`)
			assert.NoError(t, err)
			assert.Equal(t, 20240101, n)
		}()
	}
	wg.Wait()
}

func strPtr(s string) *string { return &s }

func TestRewriter(t *testing.T) {
	tests := []struct {
		name        string
		find        *string
		replaceWith *string
		path        string
		want        string
		enabled     bool
	}{
		{
			name:        "replaces segment",
			find:        strPtr("raw"),
			replaceWith: strPtr("landing"),
			path:        "s3://bucket/raw/x.csv",
			want:        "s3://bucket/landing/x.csv",
			enabled:     true,
		},
		{
			name:        "replaces every occurrence",
			find:        strPtr("a"),
			replaceWith: strPtr("b"),
			path:        "a/a/a",
			want:        "b/b/b",
			enabled:     true,
		},
		{
			name:        "replace with empty string",
			find:        strPtr("https://account.blob.core.windows.net/"),
			replaceWith: strPtr(""),
			path:        "https://account.blob.core.windows.net/container/f.csv",
			want:        "container/f.csv",
			enabled:     true,
		},
		{
			name:    "absent configuration passes through",
			path:    "s3://bucket/raw/x.csv",
			want:    "s3://bucket/raw/x.csv",
			enabled: false,
		},
		{
			name:    "only find configured passes through",
			find:    strPtr("raw"),
			path:    "s3://bucket/raw/x.csv",
			want:    "s3://bucket/raw/x.csv",
			enabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRewriter(tt.find, tt.replaceWith)
			assert.Equal(t, tt.enabled, r.Enabled())
			assert.Equal(t, tt.want, r.Rewrite(tt.path))
		})
	}
}
