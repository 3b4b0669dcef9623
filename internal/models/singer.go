package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxSingerNameLength caps singer display and unique names
const MaxSingerNameLength = 100

// Singer represents a performer. Non-persistent singers exist only while they
// hold at least one session membership; the purge step removes the rest.
type Singer struct {
	ID           uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name         string    `json:"name" gorm:"type:text;not null;column:name" validate:"required,min=1,max=100"`
	UniqueName   *string   `json:"unique_name,omitempty" gorm:"type:text;column:unique_name" validate:"omitempty,max=100"`
	Color        string    `json:"color" gorm:"type:text;not null;default:'';column:color"`
	IsPersistent bool      `json:"is_persistent" gorm:"type:integer;not null;default:0;column:is_persistent"`
	CreatedAt    time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewSinger creates a new Singer with generated UUID and timestamps
func NewSinger(name, color string, persistent bool) *Singer {
	now := time.Now().UTC()
	return &Singer{
		ID:           uuid.New(),
		Name:         name,
		Color:        color,
		IsPersistent: persistent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SessionSinger links a singer to a session they have joined
type SessionSinger struct {
	SessionID uuid.UUID `json:"session_id" gorm:"type:text;not null;primaryKey;column:session_id"`
	SingerID  uuid.UUID `json:"singer_id" gorm:"type:text;not null;primaryKey;column:singer_id"`
	Position  int       `json:"position" gorm:"type:integer;not null;column:position" validate:"gte=0"`
	JoinedAt  time.Time `json:"joined_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:joined_at"`
}

// TableName overrides the gorm pluralization for the join table
func (SessionSinger) TableName() string {
	return "session_singers"
}
