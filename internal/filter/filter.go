package filter

import (
	"strings"

	"github.com/amishk599/autojob/internal/model"
)

// Ensure TagFilter implements model.RecordFilter.
var _ model.RecordFilter = (*TagFilter)(nil)

// TagFilter matches records where any query token is a case-insensitive
// substring of any of the record's tags, company, role, location or content.
type TagFilter struct {
	tokens []string // lower-cased
}

// NewTagFilter splits raw on commas and whitespace and lower-cases each token.
func NewTagFilter(raw string) *TagFilter {
	tokens := model.SplitTags(raw)
	for i, tok := range tokens {
		tokens[i] = strings.ToLower(tok)
	}
	return &TagFilter{tokens: tokens}
}

// Empty reports whether the filter has no usable tokens.
func (f *TagFilter) Empty() bool {
	return len(f.tokens) == 0
}

// Tokens returns the normalized query tokens.
func (f *TagFilter) Tokens() []string {
	return f.tokens
}

// Match returns true on the first token found in any field. An empty filter
// matches nothing.
func (f *TagFilter) Match(rec model.JobRecord) bool {
	if len(f.tokens) == 0 {
		return false
	}

	fields := make([]string, 0, len(rec.Tags)+4)
	for _, tag := range rec.Tags {
		fields = append(fields, strings.ToLower(tag))
	}
	fields = append(fields,
		strings.ToLower(rec.Company),
		strings.ToLower(rec.Role),
		strings.ToLower(rec.Location),
		strings.ToLower(rec.Content),
	)

	for _, tok := range f.tokens {
		for _, field := range fields {
			if strings.Contains(field, tok) {
				return true
			}
		}
	}
	return false
}
