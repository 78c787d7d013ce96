package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format stored in JobRecord.Date.
const DateLayout = "2006-01-02"

// JobRecord is one cached job description. Records are immutable once saved.
type JobRecord struct {
	Company  string   `json:"company"`
	Role     string   `json:"role"`
	Location string   `json:"location"`
	Salary   string   `json:"salary"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Date     string   `json:"date"` // YYYY-MM-DD, set at save time
}

// RecordInput carries the raw caller-supplied fields for a save.
// Tags is a free-text string delimited by commas and/or whitespace.
type RecordInput struct {
	Company  string
	Role     string
	Location string
	Salary   string
	Content  string
	Tags     string
}

// NewJobRecord trims every field, splits the tag string, and stamps the
// record with now's local calendar date. Company and role are required.
func NewJobRecord(in RecordInput, now time.Time) (JobRecord, error) {
	rec := JobRecord{
		Company:  strings.TrimSpace(in.Company),
		Role:     strings.TrimSpace(in.Role),
		Location: strings.TrimSpace(in.Location),
		Salary:   strings.TrimSpace(in.Salary),
		Content:  strings.TrimSpace(in.Content),
		Tags:     SplitTags(in.Tags),
		Date:     now.Format(DateLayout),
	}
	if rec.Company == "" {
		return JobRecord{}, &ValidationError{Field: "company"}
	}
	if rec.Role == "" {
		return JobRecord{}, &ValidationError{Field: "role"}
	}
	return rec, nil
}

// SplitTags splits a raw keyword string on commas and whitespace, in any
// mixture, dropping empty tokens. Case is preserved.
func SplitTags(raw string) []string {
	fields := strings.Fields(strings.ReplaceAll(raw, ",", " "))
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			tags = append(tags, f)
		}
	}
	return tags
}

// QueryStatus says why a query returned what it did.
type QueryStatus int

const (
	QueryMatched     QueryStatus = iota // at least one record matched
	QueryEmptyStore                     // the store holds no records
	QueryInvalidTags                    // the tag string yielded no tokens
	QueryNoMatch                        // records exist but none matched
)

func (s QueryStatus) String() string {
	switch s {
	case QueryMatched:
		return "matched"
	case QueryEmptyStore:
		return "empty_store"
	case QueryInvalidTags:
		return "invalid_tags"
	case QueryNoMatch:
		return "no_match"
	default:
		return "unknown"
	}
}

// QueryResult is the outcome of a tag query. Matches are in insertion order
// with Content truncated for display.
type QueryResult struct {
	Status  QueryStatus
	Matches []JobRecord
}

// Found reports whether the query produced at least one match.
func (r QueryResult) Found() bool {
	return r.Status == QueryMatched && len(r.Matches) > 0
}

// RecordStore is the tag-searchable job-description cache.
type RecordStore interface {
	Query(tags string) QueryResult
	Save(in RecordInput) (JobRecord, error)
	All() []JobRecord
}

// Notifier announces newly cached records.
type Notifier interface {
	Notify(records []JobRecord) error
}

// RecordFilter decides whether a record matches a query.
type RecordFilter interface {
	Match(rec JobRecord) bool
}
