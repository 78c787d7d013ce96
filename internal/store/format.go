package store

import (
	"fmt"
	"strings"

	"github.com/amishk599/autojob/internal/model"
)

// FormatQueryResult renders a query result as the plain-text report handed
// back to tool callers.
func FormatQueryResult(res model.QueryResult) string {
	switch res.Status {
	case model.QueryEmptyStore:
		return "No match found. Database is empty."
	case model.QueryInvalidTags:
		return "No match found. Invalid tags provided."
	case model.QueryNoMatch:
		return "No match found. No jobs match the provided tags."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matching job(s):\n", len(res.Matches))
	for i, rec := range res.Matches {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "%d. Company: %s\n", i+1, rec.Company)
		fmt.Fprintf(&b, "   Role: %s\n", rec.Role)
		fmt.Fprintf(&b, "   Location: %s\n", orDefault(rec.Location, "Not specified"))
		fmt.Fprintf(&b, "   Salary: %s\n", orDefault(rec.Salary, "Not specified"))
		fmt.Fprintf(&b, "   Tags: %s\n", strings.Join(rec.Tags, ", "))
		fmt.Fprintf(&b, "   Date: %s\n", orDefault(rec.Date, "Unknown"))
		fmt.Fprintf(&b, "   JD Content: %s\n", orDefault(rec.Content, "No content"))
	}
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
