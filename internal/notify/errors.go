package notify

import "errors"

// Sentinel errors for the delivery core. Handlers map these to HTTP status
// codes without leaking broker details to clients.
var (
	// ErrMissingUserID rejects a connection or request that carries no user
	// identity. Fatal to that connection only.
	ErrMissingUserID = errors.New("missing user id")

	// ErrInvalidRequest rejects a publish request missing required fields.
	// No side effects are performed.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrPublishFailed reports a broker-level publish failure after the
	// payload has been pushed to the dead-letter queue.
	ErrPublishFailed = errors.New("publish failed")

	// ErrMalformedMessage marks a payload that cannot be parsed as a
	// Notification. Never propagated to clients.
	ErrMalformedMessage = errors.New("malformed message")
)
