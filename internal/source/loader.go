package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quantmind-br/adenotifier-go/internal/domain"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// File is the wrapped datasource file layout
type File struct {
	Sources []Datasource `yaml:"sources" json:"sources"`
}

// Set is a validated collection of datasources indexed by id
type Set struct {
	sources []Datasource
	byID    map[string]int
}

// Get returns the datasource with the given id
func (s *Set) Get(id string) (*Datasource, error) {
	idx, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, id)
	}
	ds := s.sources[idx]
	return &ds, nil
}

// IDs returns the datasource ids in sorted order
func (s *Set) IDs() []string {
	ids := make([]string, 0, len(s.sources))
	for _, ds := range s.sources {
		ids = append(ids, ds.ID)
	}
	sort.Strings(ids)
	return ids
}

// All returns the datasources in file order
func (s *Set) All() []Datasource {
	out := make([]Datasource, len(s.sources))
	copy(out, s.sources)
	return out
}

// Len returns the number of datasources
func (s *Set) Len() int {
	return len(s.sources)
}

// NewSet validates the datasources and indexes them by id
func NewSet(sources []Datasource) (*Set, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	set := &Set{
		sources: sources,
		byID:    make(map[string]int, len(sources)),
	}
	for i := range sources {
		ds := &sources[i]
		if strings.TrimSpace(ds.ID) == "" {
			return nil, fmt.Errorf("source %d: %w", i, domain.NewConfigurationError("", "id", "is required"))
		}
		if _, dup := set.byID[ds.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, ds.ID)
		}
		if err := ds.Validate(); err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		set.byID[ds.ID] = i
	}
	return set, nil
}

// Loader loads and validates datasource files
type Loader struct {
	fs afero.Fs
}

// NewLoader creates a new datasource loader reading from fs. A nil fs
// reads from the operating system.
func NewLoader(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{fs: fs}
}

// Load reads and parses a datasource file from the given path
func (l *Loader) Load(path string) (*Set, error) {
	if _, err := l.fs.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read datasource file: %w", err)
	}

	return l.LoadFromBytes(data, filepath.Ext(path))
}

// LoadFromBytes parses datasources from raw bytes
func (l *Loader) LoadFromBytes(data []byte, ext string) (*Set, error) {
	ext = strings.ToLower(ext)

	var sources []Datasource
	switch ext {
	case ".yaml", ".yml":
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if len(node.Content) == 0 {
			return nil, ErrNoSources
		}
		if node.Content[0].Kind == yaml.SequenceNode {
			if err := node.Decode(&sources); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
			}
		} else {
			var file File
			if err := node.Decode(&file); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
			}
			sources = file.Sources
		}
	case ".json":
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &sources); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
			}
		} else {
			var file File
			if err := json.Unmarshal(trimmed, &file); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
			}
			sources = file.Sources
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExt, ext)
	}

	return NewSet(sources)
}
