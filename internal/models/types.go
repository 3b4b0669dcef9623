package models

// Item type constants for queue entries
const (
	ItemTypeQueue   = "queue"
	ItemTypeHistory = "history"
)

// HostedStatus is the lifecycle state of a hosted (remote-controlled) session.
// A nil *HostedStatus on a session means it has never been hosted.
type HostedStatus string

// Hosted session status values
const (
	HostedStatusActive HostedStatus = "active"
	HostedStatusPaused HostedStatus = "paused"
	HostedStatusEnded  HostedStatus = "ended"
)

// ParseHostedStatus validates a boundary string against the closed status set.
// The bool result is false for any string outside the three known values.
func ParseHostedStatus(s string) (HostedStatus, bool) {
	switch HostedStatus(s) {
	case HostedStatusActive, HostedStatusPaused, HostedStatusEnded:
		return HostedStatus(s), true
	default:
		return "", false
	}
}

// IsValidItemType checks whether s names a queue partition
func IsValidItemType(s string) bool {
	return s == ItemTypeQueue || s == ItemTypeHistory
}
