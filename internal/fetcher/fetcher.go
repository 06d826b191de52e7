package fetcher

import (
	"context"
)

// Fetcher retrieves raw HTML for a URL. Retries are internal: after a
// Fetcher returns an error, nothing further up the stack retries.
type Fetcher interface {
	// Fetch returns the response body for the given URL.
	Fetch(ctx context.Context, url string) ([]byte, error)

	// Close releases any resources held by the fetcher.
	Close() error
}
