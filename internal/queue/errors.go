package queue

import "errors"

// Custom queue engine errors
var (
	// ErrSessionNotFound indicates the referenced session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoActiveSession indicates the operation requires an active session and none exists
	ErrNoActiveSession = errors.New("no active session")

	// ErrItemNotFound indicates the referenced queue item does not exist in the session
	ErrItemNotFound = errors.New("queue item not found")

	// ErrInvalidPosition indicates the target position is negative or past the end
	ErrInvalidPosition = errors.New("position out of range")

	// ErrInvalidItemType indicates the item type is not queue or history
	ErrInvalidItemType = errors.New("item type must be queue or history")

	// ErrInvalidCursor indicates a history cursor outside [-1, len(history))
	ErrInvalidCursor = errors.New("history cursor out of range")

	// ErrDuplicateItem indicates an item with the same id already exists
	ErrDuplicateItem = errors.New("queue item id already exists")
)

// IsSessionNotFound checks if the error is a session not found error
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

// IsNoActiveSession checks if the error is a no active session error
func IsNoActiveSession(err error) bool {
	return errors.Is(err, ErrNoActiveSession)
}

// IsItemNotFound checks if the error is an item not found error
func IsItemNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}

// IsInvalidPosition checks if the error is an invalid position error
func IsInvalidPosition(err error) bool {
	return errors.Is(err, ErrInvalidPosition)
}

// IsInvalidCursor checks if the error is an invalid cursor error
func IsInvalidCursor(err error) bool {
	return errors.Is(err, ErrInvalidCursor)
}
