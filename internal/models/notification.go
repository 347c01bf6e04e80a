package models

import (
	"database/sql"
	"time"
)

// ActionStatus values for actionable notifications
const (
	ActionStatusPending  = "pending"
	ActionStatusAccepted = "accepted"
	ActionStatusDeclined = "declined"
)

// Notification represents a user-facing event in a recipient's feed.
// Recipient and type never change after creation; only is_read and
// action_status mutate.
type Notification struct {
	ID          int64          `gorm:"primaryKey;autoIncrement;column:id"`
	Type        int16          `gorm:"type:smallint;not null;column:type_id"`
	RecipientID int64          `gorm:"not null;index:fh_notifs_ix1,priority:1;column:recipient_id"`
	ActorID     int64          `gorm:"not null;column:actor_id"`
	Payload     sql.NullString `gorm:"type:text;column:payload"`
	IsRead      bool           `gorm:"not null;default:false;column:is_read"`

	// Only follow-request notifications carry an action status; it moves
	// pending -> accepted or pending -> declined exactly once
	ActionStatus sql.NullString `gorm:"type:varchar(10);column:action_status"`

	CreatedAt time.Time `gorm:"not null;index:fh_notifs_ix1,priority:2;column:created_at"`

	// Relationships
	Recipient *Account `gorm:"foreignKey:RecipientID;references:ID"`
	Actor     *Account `gorm:"foreignKey:ActorID;references:ID"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "fh_notifs"
}

// Notification type constants
const (
	NotifyTypeFollowRequest  int16 = 1
	NotifyTypeFollowAccepted int16 = 2
	NotifyTypeNewFollower    int16 = 3
	NotifyTypeLike           int16 = 4
	NotifyTypeComment        int16 = 5
	NotifyTypeTag            int16 = 6
	NotifyTypeMention        int16 = 7
)

// ActionableTypes lists notification types whose action_status may be
// mutated by the recipient
var ActionableTypes = map[int16]bool{
	NotifyTypeFollowRequest: true,
}
