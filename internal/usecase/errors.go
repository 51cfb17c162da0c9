package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrConfiguration aborts a batch before any upstream call.
	ErrConfiguration = errors.New("configuration error")
	// ErrAuth is kept apart from ErrUpstreamFetch so callers can prompt for new credentials.
	ErrAuth          = errors.New("upstream authentication failed")
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	ErrBrowserLaunch     = errors.New("browser launch failed")
	ErrNavigationTimeout = errors.New("navigation timed out")
	// ErrContentNotFound is soft: the capture continues on the full page.
	ErrContentNotFound = errors.New("team content not found")
)
