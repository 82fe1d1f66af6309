package engine

import "github.com/rotisserie/eris"

// Provider error taxonomy. Sub-score producers catch these and substitute
// their documented defaults; only geocoding failures reach the caller.
var (
	// ErrProviderUnavailable means the upstream service could not be reached
	// or answered with a non-retryable server error.
	ErrProviderUnavailable = eris.New("provider unavailable")

	// ErrNoDataFound means the provider answered but has nothing for the
	// requested location.
	ErrNoDataFound = eris.New("no data found")

	// ErrMalformedPayload means the provider response could not be decoded.
	ErrMalformedPayload = eris.New("malformed payload")
)
