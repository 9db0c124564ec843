package app

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantmind-br/adenotifier-go/internal/domain"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrEntriesFileNotFound is returned when the entries file does not exist
var ErrEntriesFileNotFound = errors.New("entries file not found")

type entryRecord struct {
	SourceFile    string `json:"sourceFile" yaml:"sourceFile"`
	Batch         *int   `json:"batch,omitempty" yaml:"batch,omitempty"`
	ContentLength *int64 `json:"contentLength,omitempty" yaml:"contentLength,omitempty"`
}

// ReadEntries reads manifest entries from a file.
//
// Supported formats:
//   - .json: an array of {"sourceFile", "batch", "contentLength"} objects
//   - .yaml/.yml: the same list in YAML
//   - anything else: one file path per line, blank lines and # comments ignored
func ReadEntries(fs afero.Fs, path string) ([]domain.Entry, error) {
	if _, err := fs.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrEntriesFileNotFound, path)
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entries file: %w", err)
	}

	var records []entryRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("invalid entries file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("invalid entries file: %w", err)
		}
	default:
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			records = append(records, entryRecord{SourceFile: line})
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read entries file: %w", err)
		}
	}

	entries := make([]domain.Entry, 0, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.SourceFile) == "" {
			return nil, fmt.Errorf("invalid entries file: entry %d has no sourceFile", i)
		}
		entries = append(entries, domain.Entry{
			SourceFile:    r.SourceFile,
			Batch:         r.Batch,
			ContentLength: r.ContentLength,
		})
	}
	return entries, nil
}
