package usecase

import "errors"

var (
	// ErrDisabled is returned by Process when the table's scrape is switched
	// off in settings.
	ErrDisabled = errors.New("scrape disabled")
	// ErrDependencyUnavailable marks an upstream that is refusing calls, such
	// as an open circuit breaker.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
