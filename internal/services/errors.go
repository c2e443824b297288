package services

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the token-check stage. Both abort a sync before any
// provider traffic happens.
var (
	ErrNoProfile = errors.New("no stored profile for user")
	ErrNoToken   = errors.New("no access token recorded for user")
)

// FetchError reports a non-2xx response while fetching a linked page.
// Non-fatal: the affected event stays synced, just unenriched.
type FetchError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch of %s returned status %d", e.URL, e.StatusCode)
}

// TimeoutError reports that a page fetch exceeded its deadline. The in-flight
// request is cancelled before this is returned.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetch of %s timed out after %s", e.URL, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ExtractionParseError reports that the model's output for one chunk was not
// valid JSON after fence stripping. Raw carries the stripped text for
// diagnostics. Callers absorb this per-chunk; sibling chunks continue.
type ExtractionParseError struct {
	ChunkIndex int
	Raw        string
	Err        error
}

func (e *ExtractionParseError) Error() string {
	return fmt.Sprintf("chunk %d: model output is not valid JSON: %v", e.ChunkIndex, e.Err)
}

func (e *ExtractionParseError) Unwrap() error { return e.Err }

// RefreshError reports a failed refresh-token exchange (revoked consent,
// provider outage). Fatal: without a token nothing downstream can proceed.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("failed to refresh access token: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// ProviderFetchError reports a failed or malformed calendar-window query.
// Fatal: the sync aborts.
type ProviderFetchError struct {
	Err error
}

func (e *ProviderFetchError) Error() string {
	return fmt.Sprintf("failed to fetch events from calendar provider: %v", e.Err)
}

func (e *ProviderFetchError) Unwrap() error { return e.Err }
