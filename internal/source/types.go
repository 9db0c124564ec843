package source

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/quantmind-br/adenotifier-go/internal/batch"
	"github.com/quantmind-br/adenotifier-go/internal/domain"
	"gopkg.in/yaml.v3"
)

// Datasource is the configuration of one ADE source entity
type Datasource struct {
	ID                 string             `yaml:"id" json:"id"`
	Attributes         Attributes         `yaml:"attributes" json:"attributes"`
	ManifestParameters ManifestParameters `yaml:"manifest_parameters" json:"manifest_parameters"`
}

// Attributes identify the manifest lineage and control assembly behavior
type Attributes struct {
	SourceSystem           string  `yaml:"ade_source_system" json:"ade_source_system"`
	SourceEntity           string  `yaml:"ade_source_entity" json:"ade_source_entity"`
	BatchFromFilePathRegex *string `yaml:"batch_from_file_path_regex,omitempty" json:"batch_from_file_path_regex,omitempty"`
	PathReplace            *string `yaml:"path_replace,omitempty" json:"path_replace,omitempty"`
	PathReplaceWith        *string `yaml:"path_replace_with,omitempty" json:"path_replace_with,omitempty"`
	SingleFileManifest     Flag    `yaml:"single_file_manifest,omitempty" json:"single_file_manifest,omitempty"`
	MaxFilesInManifest     *int    `yaml:"max_files_in_manifest,omitempty" json:"max_files_in_manifest,omitempty"`
}

// ManifestParameters are the shape parameters copied onto new manifests.
// Nil fields are not sent, so the Notify API keeps its defaults.
type ManifestParameters struct {
	Format      string   `yaml:"format" json:"format"`
	Columns     []string `yaml:"columns,omitempty" json:"columns,omitempty"`
	Compression *string  `yaml:"compression,omitempty" json:"compression,omitempty"`
	Delim       *string  `yaml:"delim,omitempty" json:"delim,omitempty"`
	Fullscanned *bool    `yaml:"fullscanned,omitempty" json:"fullscanned,omitempty"`
	Skiph       *int     `yaml:"skiph,omitempty" json:"skiph,omitempty"`
}

// Validate checks the mandatory fields
func (d *Datasource) Validate() error {
	if strings.TrimSpace(d.Attributes.SourceSystem) == "" {
		return domain.NewConfigurationError(d.ID, "attributes.ade_source_system", "is required")
	}
	if strings.TrimSpace(d.Attributes.SourceEntity) == "" {
		return domain.NewConfigurationError(d.ID, "attributes.ade_source_entity", "is required")
	}
	if strings.TrimSpace(d.ManifestParameters.Format) == "" {
		return domain.NewConfigurationError(d.ID, "manifest_parameters.format", "is required")
	}
	if d.Attributes.MaxFilesInManifest != nil && *d.Attributes.MaxFilesInManifest < 0 {
		return domain.NewConfigurationError(d.ID, "attributes.max_files_in_manifest",
			fmt.Sprintf("must not be negative, got %d", *d.Attributes.MaxFilesInManifest))
	}
	return nil
}

// Key returns the manifest lineage of the datasource
func (d *Datasource) Key() domain.SourceKey {
	return domain.SourceKey{
		System: d.Attributes.SourceSystem,
		Entity: d.Attributes.SourceEntity,
	}
}

// SingleFile reports whether every file gets its own self-notifying manifest
func (d *Datasource) SingleFile() bool {
	return bool(d.Attributes.SingleFileManifest)
}

// MaxFiles returns the configured entry limit per manifest
func (d *Datasource) MaxFiles() (int, bool) {
	if d.Attributes.MaxFilesInManifest == nil {
		return 0, false
	}
	return *d.Attributes.MaxFilesInManifest, true
}

// BatchPattern returns the batch extraction pattern, if configured
func (d *Datasource) BatchPattern() (string, bool) {
	if d.Attributes.BatchFromFilePathRegex == nil {
		return "", false
	}
	return *d.Attributes.BatchFromFilePathRegex, true
}

// Rewriter returns the path rewriter of the datasource
func (d *Datasource) Rewriter() batch.Rewriter {
	return batch.NewRewriter(d.Attributes.PathReplace, d.Attributes.PathReplaceWith)
}

// Parameters returns the manifest shape parameters
func (d *Datasource) Parameters() domain.Parameters {
	p := d.ManifestParameters
	return domain.Parameters{
		Format:      p.Format,
		Columns:     p.Columns,
		Compression: p.Compression,
		Delim:       p.Delim,
		Fullscanned: p.Fullscanned,
		Skiph:       p.Skiph,
	}
}

// Flag is a boolean that also accepts string spellings such as "true" or "0"
type Flag bool

func parseFlag(s string) (Flag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	switch strings.ToLower(s) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", s)
	}
	return Flag(b), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid boolean %s", string(data))
	}
	if s == nil {
		*f = false
		return nil
	}
	v, err := parseFlag(*s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (f *Flag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a boolean", node.Line)
	}
	if node.Tag == "!!null" {
		*f = false
		return nil
	}
	v, err := parseFlag(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*f = v
	return nil
}
