package bgcheck

import "errors"

var (
	// ErrInvalidRequest is returned when the request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")

	// ErrUnauthorized is returned when the API key is invalid
	ErrUnauthorized = errors.New("unauthorized: invalid API key")

	// ErrCheckNotFound is returned when the provider does not know the check ID
	ErrCheckNotFound = errors.New("check not found")

	// ErrInvalidSignature is returned when a webhook signature does not verify
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMalformedResponse is returned when the provider response cannot be parsed
	ErrMalformedResponse = errors.New("malformed provider response")
)
