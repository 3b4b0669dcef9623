package session

import "errors"

// Custom session service errors
var (
	// ErrSessionNotFound indicates the requested session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoActiveSession indicates no session is currently active
	ErrNoActiveSession = errors.New("no active session")

	// ErrInvalidName indicates an empty or over-long session name
	ErrInvalidName = errors.New("session name must be 1-255 characters")

	// ErrInvalidHostedStatus indicates a hosted status outside active/paused/ended
	ErrInvalidHostedStatus = errors.New("hosted status must be active, paused, or ended")

	// ErrOwnershipConflict indicates another user holds a live claim on the
	// session's hosted fields. This is an expected outcome of concurrent use,
	// not a hard failure.
	ErrOwnershipConflict = errors.New("hosted session is claimed by another user")

	// ErrSingerNotInSession indicates the singer has not joined the session
	ErrSingerNotInSession = errors.New("singer is not a member of the session")
)

// IsSessionNotFound checks if the error is a session not found error
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

// IsNoActiveSession checks if the error is a no active session error
func IsNoActiveSession(err error) bool {
	return errors.Is(err, ErrNoActiveSession)
}

// IsInvalidName checks if the error is an invalid session name error
func IsInvalidName(err error) bool {
	return errors.Is(err, ErrInvalidName)
}

// IsOwnershipConflict checks if the error is an ownership conflict
func IsOwnershipConflict(err error) bool {
	return errors.Is(err, ErrOwnershipConflict)
}

// IsInvalidHostedStatus checks if the error is an invalid hosted status error
func IsInvalidHostedStatus(err error) bool {
	return errors.Is(err, ErrInvalidHostedStatus)
}

// IsSingerNotInSession checks if the error is a singer membership error
func IsSingerNotInSession(err error) bool {
	return errors.Is(err, ErrSingerNotInSession)
}
