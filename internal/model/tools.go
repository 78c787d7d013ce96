package model

import "context"

// SearchResult is a single web search hit.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// Repo is a GitHub repository reference.
type Repo struct {
	FullName string // owner/name
	URL      string
}

// WebSearcher runs a web search and returns at most max results.
type WebSearcher interface {
	Search(ctx context.Context, query string, max int) ([]SearchResult, error)
}

// PageFetcher retrieves the readable text of a web page.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// RepoSearcher finds GitHub repositories for a keyword string.
type RepoSearcher interface {
	SearchRepos(ctx context.Context, keywords string) ([]Repo, error)
}

// TagSuggester proposes tags for a job description.
type TagSuggester interface {
	SuggestTags(ctx context.Context, in RecordInput) ([]string, error)
}
