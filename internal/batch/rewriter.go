package batch

import "strings"

// Rewriter applies a find/replace to file paths
type Rewriter struct {
	find        string
	replaceWith string
	enabled     bool
}

// NewRewriter builds a Rewriter. The rewriter is a pass-through unless both
// find and replaceWith are configured.
func NewRewriter(find, replaceWith *string) Rewriter {
	if find == nil || replaceWith == nil {
		return Rewriter{}
	}
	return Rewriter{
		find:        *find,
		replaceWith: *replaceWith,
		enabled:     true,
	}
}

// Enabled reports whether Rewrite changes anything
func (r Rewriter) Enabled() bool {
	return r.enabled
}

// Rewrite replaces every occurrence of the configured substring
func (r Rewriter) Rewrite(path string) string {
	if !r.enabled {
		return path
	}
	return strings.ReplaceAll(path, r.find, r.replaceWith)
}
