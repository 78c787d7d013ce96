package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/amishk599/autojob/internal/model"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 5 << 20

// Ensure PageFetcher implements model.PageFetcher.
var _ model.PageFetcher = (*PageFetcher)(nil)

// PageFetcher downloads a web page and reduces it to readable text.
type PageFetcher struct {
	client   *http.Client
	maxChars int
}

// NewPageFetcher creates a fetcher whose output is capped at maxChars runes
// (0 means no cap).
func NewPageFetcher(client *http.Client, maxChars int) *PageFetcher {
	return &PageFetcher{client: client, maxChars: maxChars}
}

// FetchPage retrieves rawURL and returns its text content.
func (f *PageFetcher) FetchPage(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("fetch page: invalid url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("fetch page %s: %w", u, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp, fmt.Sprintf("fetch page %s", u))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("fetch page %s: read body: %w", u, err)
	}

	var text string
	if isHTML(resp.Header.Get("Content-Type"), body) {
		text, err = extractText(bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("fetch page %s: %w", u, err)
		}
	} else {
		text = collapseLines(string(body))
	}

	return truncateRunes(text, f.maxChars), nil
}

func isHTML(contentType string, body []byte) bool {
	if contentType != "" {
		return strings.Contains(contentType, "html")
	}
	return strings.Contains(http.DetectContentType(body), "html")
}
