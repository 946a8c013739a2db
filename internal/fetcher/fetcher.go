package fetcher

import (
	"context"
	"errors"
	"fmt"
)

// Fetcher retrieves the raw HTML for a URL. The strategy (direct HTTP or a
// rendered browser session) is fixed for the fetcher's lifetime; Close
// releases whatever long-lived resources the strategy owns and is safe to
// call on every exit path.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	Close() error
}

// Kind classifies a fetch failure.
type Kind string

const (
	// KindNetwork covers transport failures and non-2xx responses.
	KindNetwork Kind = "network"
	// KindRender covers browser startup, navigation and session failures.
	KindRender Kind = "render"
	// KindBlocked covers rate-limit responses and CAPTCHA interstitials.
	// Blocked fetches are surfaced, never silently retried.
	KindBlocked Kind = "blocked"
)

// Error is the failure returned by every Fetcher implementation.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or the empty Kind when err is
// not a fetch error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
