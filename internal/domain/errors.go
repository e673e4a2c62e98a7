package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrTransport indicates the source could not be reached or failed transiently
	ErrTransport = errors.New("channel source is unreachable")

	// ErrDecode indicates the source returned a payload that could not be parsed
	ErrDecode = errors.New("malformed response from channel source")

	// ErrAuthFailed indicates the client id or token was rejected
	ErrAuthFailed = errors.New("client credentials were rejected")

	// ErrUserNotFound indicates the follows criterion names no known user
	ErrUserNotFound = errors.New("user not found")

	// ErrNoCriterion indicates no username is configured to list follows for
	ErrNoCriterion = errors.New("no username configured")
)
