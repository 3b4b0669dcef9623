package singer

import "errors"

// Custom singer service errors
var (
	// ErrSingerNotFound indicates the requested singer does not exist
	ErrSingerNotFound = errors.New("singer not found")

	// ErrSessionNotFound indicates the requested session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidName indicates an empty or over-long singer name
	ErrInvalidName = errors.New("singer name must be 1-100 characters after trimming")

	// ErrAlreadyJoined indicates the singer is already a member of the session
	ErrAlreadyJoined = errors.New("singer already joined the session")

	// ErrNotJoined indicates the singer is not a member of the session
	ErrNotJoined = errors.New("singer has not joined the session")
)

// IsSingerNotFound checks if the error is a singer not found error
func IsSingerNotFound(err error) bool {
	return errors.Is(err, ErrSingerNotFound)
}

// IsInvalidName checks if the error is an invalid name error
func IsInvalidName(err error) bool {
	return errors.Is(err, ErrInvalidName)
}
