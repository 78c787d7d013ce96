package adapter

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/autojob/internal/model"
)

// userAgent is sent on every outbound request; some endpoints reject the Go default.
const userAgent = "Mozilla/5.0 (compatible; autojob/1.0; +https://github.com/amishk599/autojob)"

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// statusError converts a non-200 response into a *model.HTTPError so the
// retry layer can inspect the status and Retry-After.
func statusError(resp *http.Response, what string) error {
	return &model.HTTPError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		Err:        fmt.Errorf("%s: unexpected status %d", what, resp.StatusCode),
	}
}
