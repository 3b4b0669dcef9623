package models

import (
	"time"

	"github.com/google/uuid"
)

// QueueItem represents one entry in a session's queue or history partition.
// The ID is supplied by the caller (the desktop client mints it when the video
// is picked) and treated as an opaque string. Position values within a
// (session_id, item_type) partition are dense: exactly {0..n-1} after every
// successful mutation.
type QueueItem struct {
	ID        string  `json:"id" gorm:"type:text;primaryKey;column:id"`
	SessionID uuid.UUID `json:"session_id" gorm:"type:text;not null;column:session_id" validate:"required"`
	ItemType  string  `json:"item_type" gorm:"type:text;not null;column:item_type" validate:"oneof=queue history"`

	// Denormalized video descriptor; playback itself is out of scope.
	VideoID         string `json:"video_id" gorm:"type:text;not null;column:video_id"`
	Title           string `json:"title" gorm:"type:text;not null;column:title"`
	Artist          string `json:"artist" gorm:"type:text;not null;default:'';column:artist"`
	DurationSeconds int64  `json:"duration_seconds" gorm:"type:integer;not null;default:0;column:duration_seconds"`
	ThumbnailURL    string `json:"thumbnail_url" gorm:"type:text;not null;default:'';column:thumbnail_url"`

	Position int        `json:"position" gorm:"type:integer;not null;column:position" validate:"gte=0"`
	AddedAt  time.Time  `json:"added_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:added_at"`
	PlayedAt *time.Time `json:"played_at,omitempty" gorm:"type:datetime;column:played_at"`

	// Populated by joins, not stored in the queue_items table
	Singers []*Singer `json:"singers,omitempty" gorm:"-"`
}

// QueueItemSinger assigns a singer to a queue item; Position is the display
// order of singers on the item (0 for solos, 0..k-1 for duets and groups).
type QueueItemSinger struct {
	QueueItemID string    `json:"queue_item_id" gorm:"type:text;not null;primaryKey;column:queue_item_id"`
	SingerID    uuid.UUID `json:"singer_id" gorm:"type:text;not null;primaryKey;column:singer_id"`
	Position    int       `json:"position" gorm:"type:integer;not null;column:position" validate:"gte=0"`
}

// TableName overrides the gorm pluralization for the assignment table
func (QueueItemSinger) TableName() string {
	return "queue_item_singers"
}
