package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/amishk599/autojob/internal/model"
)

// Ensure DuckDuckGoSearcher implements model.WebSearcher.
var _ model.WebSearcher = (*DuckDuckGoSearcher)(nil)

// DuckDuckGoSearcher queries the DuckDuckGo HTML endpoint, which needs no API key.
type DuckDuckGoSearcher struct {
	baseURL string
	client  *http.Client
}

// NewDuckDuckGoSearcher creates a searcher for the given HTML endpoint,
// e.g. "https://html.duckduckgo.com/html/".
func NewDuckDuckGoSearcher(baseURL string, client *http.Client) *DuckDuckGoSearcher {
	return &DuckDuckGoSearcher{baseURL: baseURL, client: client}
}

// Search runs query and returns at most max results in page order.
func (s *DuckDuckGoSearcher) Search(ctx context.Context, query string, max int) ([]model.SearchResult, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search: parse base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search %q: %w", query, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, fmt.Sprintf("duckduckgo search %q", query))
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search %q: parse html: %w", query, err)
	}
	return parseDuckDuckGoResults(doc, max), nil
}

// parseDuckDuckGoResults walks the result page collecting a.result__a links
// and attaching the following .result__snippet to the latest link.
func parseDuckDuckGoResults(doc *html.Node, max int) []model.SearchResult {
	var results []model.SearchResult
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				if max > 0 && len(results) == max {
					return false
				}
				results = append(results, model.SearchResult{
					Title: nodeText(n),
					URL:   resolveResultURL(attr(n, "href")),
				})
				return true
			case hasClass(n, "result__snippet"):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = nodeText(n)
				}
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)
	return results
}

// resolveResultURL unwraps DuckDuckGo redirect links ("//duckduckgo.com/l/?uddg=...").
func resolveResultURL(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

// JDResultCount is how many results a job-description search returns.
const JDResultCount = 3

// JDQuery builds the search query that targets LinkedIn job postings.
func JDQuery(company, role string) string {
	return fmt.Sprintf("site:linkedin.com/jobs %s %s", company, role)
}

// MarketQueries returns the Nowcoder and Zhihu queries that surface posts
// about which companies hire candidates with the given background tags.
func MarketQueries(userTags string) []string {
	return []string{
		fmt.Sprintf("site:nowcoder.com %s offer 比较", userTags),
		fmt.Sprintf("site:nowcoder.com %s 也是双非 拿到offer", userTags),
		fmt.Sprintf("site:zhihu.com %s offer 公司", userTags),
		fmt.Sprintf("site:zhihu.com %s 拿到 offer", userTags),
	}
}

// FormatResults renders search results as numbered title/URL/snippet blocks.
func FormatResults(results []model.SearchResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}
	return b.String()
}
