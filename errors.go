package relay

import "fmt"

// ErrConfig reports a missing credential or required configuration
// value. Turn-fatal: the upstream provider is never contacted.
type ErrConfig struct {
	Name string
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Name)
}

// ErrUpstream reports a failed provider call or stream. Turn-fatal,
// never retried.
type ErrUpstream struct {
	Provider string
	Err      error
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ErrUpstream) Unwrap() error {
	return e.Err
}

// ErrHTTP reports a non-success status from an upstream HTTP API.
type ErrHTTP struct {
	Status int
	Body   string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// ErrAttachment reports an attachment fetch or extraction failure.
// Non-fatal: the turn continues without the attachment content.
type ErrAttachment struct {
	URL string
	Err error
}

func (e *ErrAttachment) Error() string {
	return fmt.Sprintf("attachment %s: %v", e.URL, e.Err)
}

func (e *ErrAttachment) Unwrap() error {
	return e.Err
}
