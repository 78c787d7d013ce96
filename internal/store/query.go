package store

import (
	"slices"

	"github.com/amishk599/autojob/internal/filter"
	"github.com/amishk599/autojob/internal/model"
)

// ContentPreviewLimit is the number of characters of Content returned by a
// query. Longer content is cut and suffixed with TruncationMarker.
const (
	ContentPreviewLimit = 500
	TruncationMarker    = "..."
)

// runQuery scans records linearly and returns matches in insertion order.
// The empty-store check precedes tag validation.
func runQuery(records []model.JobRecord, tags string) model.QueryResult {
	if len(records) == 0 {
		return model.QueryResult{Status: model.QueryEmptyStore}
	}

	f := filter.NewTagFilter(tags)
	if f.Empty() {
		return model.QueryResult{Status: model.QueryInvalidTags}
	}

	var matches []model.JobRecord
	for _, rec := range records {
		if f.Match(rec) {
			matches = append(matches, preview(rec))
		}
	}
	if len(matches) == 0 {
		return model.QueryResult{Status: model.QueryNoMatch}
	}
	return model.QueryResult{Status: model.QueryMatched, Matches: matches}
}

// preview returns a copy of rec with Content truncated for display.
func preview(rec model.JobRecord) model.JobRecord {
	rec.Tags = slices.Clone(rec.Tags)
	rec.Content = TruncateContent(rec.Content, ContentPreviewLimit)
	return rec
}

// TruncateContent cuts s to at most limit characters (runes, not bytes) and
// appends TruncationMarker when anything was removed.
func TruncateContent(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + TruncationMarker
}

func cloneResult(res model.QueryResult) model.QueryResult {
	out := model.QueryResult{Status: res.Status}
	if res.Matches != nil {
		out.Matches = make([]model.JobRecord, len(res.Matches))
		for i, rec := range res.Matches {
			rec.Tags = slices.Clone(rec.Tags)
			out.Matches[i] = rec
		}
	}
	return out
}
