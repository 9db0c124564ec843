package source

import (
	"testing"

	"github.com/quantmind-br/adenotifier-go/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

func TestNewLoader(t *testing.T) {
	assert.NotNil(t, NewLoader(nil))
	assert.NotNil(t, NewLoader(afero.NewMemMapFs()))
}

func TestLoader_Load_FileNotFound(t *testing.T) {
	loader := NewLoader(afero.NewMemMapFs())

	set, err := loader.Load("/nonexistent/sources.yaml")

	assert.Nil(t, set)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoader_Load_WrappedYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/etc/adenotifier/sources.yaml", `
sources:
  - id: erp-orders
    attributes:
      ade_source_system: erp
      ade_source_entity: orders
      path_replace: "s3://landing/"
      path_replace_with: "s3://archive/"
      batch_from_file_path_regex: "(\\d{4})/(\\d{2})/(\\d{2})"
      max_files_in_manifest: 100
    manifest_parameters:
      format: CSV
      delim: SEMICOLON
      skiph: 1
      columns: [id, amount]
  - id: crm-accounts
    attributes:
      ade_source_system: crm
      ade_source_entity: accounts
      single_file_manifest: "true"
    manifest_parameters:
      format: JSON
      compression: GZIP
      fullscanned: true
`)

	set, err := NewLoader(fs).Load("/etc/adenotifier/sources.yaml")
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"crm-accounts", "erp-orders"}, set.IDs())

	orders, err := set.Get("erp-orders")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceKey{System: "erp", Entity: "orders"}, orders.Key())
	assert.Equal(t, "s3://landing/", *orders.Attributes.PathReplace)
	assert.Equal(t, `(\d{4})/(\d{2})/(\d{2})`, *orders.Attributes.BatchFromFilePathRegex)
	assert.Equal(t, 100, *orders.Attributes.MaxFilesInManifest)
	assert.False(t, orders.SingleFile())
	assert.Equal(t, "SEMICOLON", *orders.ManifestParameters.Delim)
	assert.Equal(t, 1, *orders.ManifestParameters.Skiph)
	assert.Equal(t, []string{"id", "amount"}, orders.ManifestParameters.Columns)
	assert.Nil(t, orders.ManifestParameters.Compression)
	assert.Nil(t, orders.ManifestParameters.Fullscanned)

	accounts, err := set.Get("crm-accounts")
	require.NoError(t, err)
	assert.True(t, accounts.SingleFile())
	assert.Equal(t, "GZIP", *accounts.ManifestParameters.Compression)
	assert.True(t, *accounts.ManifestParameters.Fullscanned)
	assert.Nil(t, accounts.Attributes.MaxFilesInManifest)
}

func TestLoader_Load_BareJSONList(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "sources.json", `[
		{
			"id": "erp-orders",
			"attributes": {"ade_source_system": "erp", "ade_source_entity": "orders", "single_file_manifest": false},
			"manifest_parameters": {"format": "PARQUET"}
		}
	]`)

	set, err := NewLoader(fs).Load("sources.json")
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())

	ds, err := set.Get("erp-orders")
	require.NoError(t, err)
	assert.Equal(t, "PARQUET", ds.ManifestParameters.Format)
}

func TestLoadFromBytes_WrappedJSON(t *testing.T) {
	data := []byte(`{"sources": [{"id": "a", "attributes": {"ade_source_system": "s", "ade_source_entity": "e"}, "manifest_parameters": {"format": "CSV"}}]}`)

	set, err := NewLoader(nil).LoadFromBytes(data, ".JSON")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, set.IDs())
}

func TestLoadFromBytes_BareYAMLList(t *testing.T) {
	data := []byte(`
- id: a
  attributes: {ade_source_system: s, ade_source_entity: e}
  manifest_parameters: {format: CSV}
`)

	set, err := NewLoader(nil).LoadFromBytes(data, ".yml")
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
}

func TestLoadFromBytes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		ext     string
		wantIs  error
		wantCfg bool
	}{
		{"unsupported extension", "x", ".txt", ErrUnsupportedExt, false},
		{"invalid yaml", "sources: [unclosed", ".yaml", ErrInvalidFormat, false},
		{"invalid json", "{invalid", ".json", ErrInvalidFormat, false},
		{"empty yaml", "", ".yaml", ErrNoSources, false},
		{"no sources", "sources: []", ".yaml", ErrNoSources, false},
		{
			name: "duplicate ids",
			data: `[{"id":"a","attributes":{"ade_source_system":"s","ade_source_entity":"e"},"manifest_parameters":{"format":"CSV"}},
			        {"id":"a","attributes":{"ade_source_system":"s","ade_source_entity":"e"},"manifest_parameters":{"format":"CSV"}}]`,
			ext:    ".json",
			wantIs: ErrDuplicateID,
		},
		{
			name:    "missing id",
			data:    `[{"attributes":{"ade_source_system":"s","ade_source_entity":"e"},"manifest_parameters":{"format":"CSV"}}]`,
			ext:     ".json",
			wantCfg: true,
		},
		{
			name:    "missing format",
			data:    `[{"id":"a","attributes":{"ade_source_system":"s","ade_source_entity":"e"},"manifest_parameters":{}}]`,
			ext:     ".json",
			wantCfg: true,
		},
		{
			name:   "invalid flag",
			data:   `[{"id":"a","attributes":{"ade_source_system":"s","ade_source_entity":"e","single_file_manifest":"maybe"},"manifest_parameters":{"format":"CSV"}}]`,
			ext:    ".json",
			wantIs: ErrInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := NewLoader(nil).LoadFromBytes([]byte(tt.data), tt.ext)
			require.Error(t, err)
			assert.Nil(t, set)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantCfg {
				assert.True(t, domain.IsConfigurationError(err))
			}
		})
	}
}

func TestSet_Get_NotFound(t *testing.T) {
	set, err := NewSet([]Datasource{validDatasource()})
	require.NoError(t, err)

	ds, err := set.Get("missing")
	assert.Nil(t, ds)
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)
}

func TestSet_All_ReturnsCopy(t *testing.T) {
	set, err := NewSet([]Datasource{validDatasource()})
	require.NoError(t, err)

	all := set.All()
	all[0].ID = "changed"

	ds, err := set.Get("erp-orders")
	require.NoError(t, err)
	assert.Equal(t, "erp-orders", ds.ID)
}
