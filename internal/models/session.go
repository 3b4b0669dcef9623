package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a live karaoke event.
// At most one session has IsActive set at any time; the session service
// enforces that invariant inside its start/end/load transactions.
type Session struct {
	ID             uuid.UUID  `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name           string     `json:"name" gorm:"type:text;not null;column:name" validate:"required,min=1,max=255"`
	StartedAt      time.Time  `json:"started_at" gorm:"type:datetime;not null;column:started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty" gorm:"type:datetime;column:ended_at"`
	IsActive       bool       `json:"is_active" gorm:"type:integer;not null;default:0;column:is_active"`
	HistoryIndex   int        `json:"history_index" gorm:"type:integer;not null;default:-1;column:history_index"`
	ActiveSingerID *uuid.UUID `json:"active_singer_id,omitempty" gorm:"type:text;column:active_singer_id"`

	// Hosted triple: set only once a remote identity has claimed the session.
	HostedSessionID     *string       `json:"hosted_session_id,omitempty" gorm:"type:text;column:hosted_session_id"`
	HostedByUserID      *string       `json:"hosted_by_user_id,omitempty" gorm:"type:text;column:hosted_by_user_id"`
	HostedSessionStatus *HostedStatus `json:"hosted_session_status,omitempty" gorm:"type:text;column:hosted_session_status"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewSession creates a new active Session with generated UUID and timestamps
func NewSession(name string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           uuid.New(),
		Name:         name,
		StartedAt:    now,
		IsActive:     true,
		HistoryIndex: -1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
