package entitlements

import "errors"

var (
	// ErrUnknownAccount means the remote authority has no such account.
	// Terminal: callers must not fall back to free-tier defaults.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrCountingFailure means record counts could not be read. The
	// entitlement is unknown; callers fail closed (CanAdd=false) instead
	// of coercing counts to zero.
	ErrCountingFailure = errors.New("record counting failed")

	// ErrRemoteUnavailable means the remote authority could not be
	// reached at all. Recovered locally by serving the cached value.
	ErrRemoteUnavailable = errors.New("remote authority unavailable")
)
