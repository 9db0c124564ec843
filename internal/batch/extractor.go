// Package batch derives entry batch numbers from file paths and rewrites
// file paths before they are recorded in a manifest.
package batch

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/quantmind-br/adenotifier-go/internal/domain"
)

// Extractor parses integer batch ids out of file paths. Compiled patterns
// are memoized; an Extractor is safe for concurrent use.
type Extractor struct {
	patterns sync.Map // string -> *regexp.Regexp
}

// NewExtractor creates a new Extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract applies pattern once to path, concatenates every capturing group
// left to right and parses the result as a base-10 integer.
func (e *Extractor) Extract(path, pattern string) (int, error) {
	re, err := e.compile(pattern)
	if err != nil {
		return 0, domain.NewBatchParseError(path, pattern, "invalid pattern", err)
	}
	if re.NumSubexp() == 0 {
		return 0, domain.NewBatchParseError(path, pattern, "pattern has no capturing groups", nil)
	}

	loc := re.FindStringSubmatchIndex(path)
	if loc == nil {
		return 0, domain.NewBatchParseError(path, pattern, "pattern did not match", nil)
	}

	var sb strings.Builder
	for i := 1; i <= re.NumSubexp(); i++ {
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 {
			return 0, domain.NewBatchParseError(path, pattern, "capturing group "+strconv.Itoa(i)+" did not participate in the match", nil)
		}
		sb.WriteString(path[start:end])
	}

	n, err := strconv.Atoi(sb.String())
	if err != nil {
		return 0, domain.NewBatchParseError(path, pattern, "matched text "+strconv.Quote(sb.String())+" is not an integer", err)
	}
	return n, nil
}

func (e *Extractor) compile(pattern string) (*regexp.Regexp, error) {
	if cached, ok := e.patterns.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	e.patterns.Store(pattern, re)
	return re, nil
}
