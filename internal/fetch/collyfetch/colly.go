// Package collyfetch implements fetch.Fetcher on a colly collector.
package collyfetch

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/discochess/callcache/internal/fetch"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 20 * time.Second

// Compile-time check that Fetcher implements fetch.Fetcher.
var _ fetch.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves pages with colly. Each call runs on a clone of the base
// collector so callbacks never leak between concurrent fetches.
type Fetcher struct {
	base *colly.Collector
}

// Option configures the base collector.
type Option func(*colly.Collector) error

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *colly.Collector) error {
		c.SetRequestTimeout(d)
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *colly.Collector) error {
		c.UserAgent = ua
		return nil
	}
}

// WithMaxBodySize limits the accepted body size in bytes. Larger bodies
// are truncated by colly.
func WithMaxBodySize(n int) Option {
	return func(c *colly.Collector) error {
		c.MaxBodySize = n
		return nil
	}
}

// WithDomainDelay serializes requests to domains matching glob and waits d
// between them.
func WithDomainDelay(glob string, d time.Duration) Option {
	return func(c *colly.Collector) error {
		if err := c.Limit(&colly.LimitRule{DomainGlob: glob, Parallelism: 1, Delay: d}); err != nil {
			return fmt.Errorf("setting domain delay: %w", err)
		}
		return nil
	}
}

// New creates a colly-backed Fetcher. Every response reaches the status
// check, so any 2xx status is a success as with httpfetch.
func New(opts ...Option) (*Fetcher, error) {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.Async(false),
		colly.UserAgent(fetch.DefaultUserAgent),
		colly.ParseHTTPErrorResponse(),
	)
	c.SetRequestTimeout(DefaultTimeout)
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return &Fetcher{base: c}, nil
}

// Fetch visits url and returns the body of a 2xx response.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	c := f.base.Clone()
	c.Context = ctx

	var (
		body   []byte
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(url); err != nil {
		if status != 0 && !fetch.Successful(status) {
			return nil, &fetch.StatusError{URL: url, Code: status}
		}
		return nil, fmt.Errorf("visiting %s: %w", url, err)
	}
	if !fetch.Successful(status) {
		return nil, &fetch.StatusError{URL: url, Code: status}
	}
	return body, nil
}
