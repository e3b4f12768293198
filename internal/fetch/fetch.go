// Package fetch defines the HTTP fetch capability used by the page cache.
package fetch

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for fetch failures.
var (
	// ErrStatus indicates the server answered with a non-2xx status.
	ErrStatus = errors.New("fetch: unsuccessful status")

	// ErrTooLarge indicates the body exceeded the configured limit.
	ErrTooLarge = errors.New("fetch: response body too large")
)

// DefaultUserAgent is sent when no other user agent is configured.
const DefaultUserAgent = "callcache/1.0 (+https://github.com/discochess/callcache)"

// Fetcher retrieves the body of a URL with an HTTP GET.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	// Fetch returns the response body for a 2xx response. Any other status
	// yields a *StatusError, which matches ErrStatus.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s returned status %d", e.URL, e.Code)
}

// Is reports whether target is ErrStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Successful reports whether code is a 2xx status.
func Successful(code int) bool {
	return code >= 200 && code < 300
}
