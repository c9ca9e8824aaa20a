// Package apperr defines the failure classification shared by services and
// the HTTP layer. Every failure that crosses a service boundary wraps exactly
// one of these sentinels.
package apperr

import "errors"

var (
	// ErrInvalidInput marks malformed or empty image payloads. User-correctable.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration marks a misconfigured style catalog or ranking setup.
	// Raised at startup only.
	ErrConfiguration = errors.New("configuration error")

	// ErrEmbedder marks a failed call to the external embedding model.
	// The request can be retried as a whole.
	ErrEmbedder = errors.New("embedder unavailable")

	// ErrRequestInFlight means the user already has a classification in
	// progress; no work was performed.
	ErrRequestInFlight = errors.New("request already in progress")

	// ErrSessionAbsent means the user acted on an expired or unknown session.
	// Surfaced as "please resubmit", not logged as a failure.
	ErrSessionAbsent = errors.New("session expired or not found")

	// ErrPersistence marks storage unavailability. In-memory state (gate,
	// session) is still cleaned up before it is returned.
	ErrPersistence = errors.New("storage unavailable")
)
