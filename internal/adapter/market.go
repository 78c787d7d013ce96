package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/autojob/internal/model"
)

// MarketResultCount is how many results each market query returns.
const MarketResultCount = 5

// MarketSearch runs every MarketQueries query independently and combines the
// results. A failing query is reported inline; the call fails only when no
// query produced any result.
func MarketSearch(ctx context.Context, searcher model.WebSearcher, userTags string) (string, error) {
	userTags = strings.TrimSpace(userTags)
	if userTags == "" {
		return "", fmt.Errorf("market search: user tags are required")
	}

	var sections []string
	found := 0
	for _, q := range MarketQueries(userTags) {
		results, err := searcher.Search(ctx, q, MarketResultCount)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("market search: %w", ctx.Err())
			}
			sections = append(sections, fmt.Sprintf("Query: %s\nError: %v\n", q, err))
			continue
		}
		if len(results) == 0 {
			continue
		}
		found++
		sections = append(sections, fmt.Sprintf("Query: %s\nResults:\n%s", q, FormatResults(results)))
	}

	if found == 0 {
		return "", fmt.Errorf("no search results found for user tags '%s'; try different tags or check if the platforms are accessible", userTags)
	}

	return fmt.Sprintf("Market analysis results for tags '%s':\n\n%s", userTags, strings.Join(sections, "\n---\n")), nil
}
