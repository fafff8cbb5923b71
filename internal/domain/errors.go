package domain

import "errors"

var (
	// ErrUpstreamUnavailable is returned when a search or fetch call fails or times out
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamRejected is returned when the upstream refuses the request (4xx)
	ErrUpstreamRejected = errors.New("upstream rejected request")

	// ErrMalformedPayload is returned when no known response shape matches
	ErrMalformedPayload = errors.New("malformed upstream payload")

	// ErrCircuitOpen is returned while the search circuit breaker is open
	ErrCircuitOpen = errors.New("search circuit breaker open")

	// ErrInvalidItem is returned when an item lacks a usable type or description
	ErrInvalidItem = errors.New("item missing type or description")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrSessionNotFound is returned when a session id is unknown
	ErrSessionNotFound = errors.New("session not found")

	// ErrVisionFailure is returned when the image analysis call fails
	ErrVisionFailure = errors.New("image analysis failed")
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
