package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Callers match these with
// errors.Is regardless of the wrapper they arrive in.
var (
	ErrFetchFailed        = errors.New("fetch failed after all retries")
	ErrExtractionEmpty    = errors.New("no usable text extracted")
	ErrCorruptArticle     = errors.New("stored article body is corrupt")
	ErrStorageUnavailable = errors.New("storage backend unavailable")
	ErrInvalidURL         = errors.New("invalid URL")
	ErrNotFound           = errors.New("article not found")
)

// FetchError wraps errors that occur while fetching a URL.
type FetchError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
	Retryable  bool
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d, attempts %d): %v", e.URL, e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetch error for %s (attempts %d): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ExtractError wraps errors that occur during HTML extraction.
type ExtractError struct {
	URL string
	Err error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract error for %s: %v", e.URL, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// StorageError wraps errors from a storage backend.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError records which ingest stage a failure occurred in.
type PipelineError struct {
	Stage string
	URL   string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("ingest failed at stage %q for %s: %v", e.Stage, e.URL, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
