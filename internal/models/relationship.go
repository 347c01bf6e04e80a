package models

import (
	"time"
)

// RelationshipStatus is the persisted state of a follow edge. Declined and
// removed edges are deleted outright, so no "declined" status is stored.
type RelationshipStatus string

// Relationship status constants
const (
	RelationshipPending  RelationshipStatus = "pending"
	RelationshipAccepted RelationshipStatus = "accepted"
)

// Relationship represents a directed follow edge from follower to followee.
// At most one row exists per ordered (follower, followee) pair; the reverse
// edge is an independent row.
type Relationship struct {
	ID         string             `gorm:"primaryKey;type:varchar(36);column:id"`
	FollowerID int64              `gorm:"not null;uniqueIndex:fh_relationships_ux1;column:follower_id"`
	FolloweeID int64              `gorm:"not null;uniqueIndex:fh_relationships_ux1;column:followee_id"`
	Status     RelationshipStatus `gorm:"type:varchar(10);not null;default:'pending';column:status"`
	CreatedAt  time.Time          `gorm:"not null;column:created_at"`
	UpdatedAt  time.Time          `gorm:"not null;column:updated_at"`

	// Relationships
	Follower *Account `gorm:"foreignKey:FollowerID;references:ID"`
	Followee *Account `gorm:"foreignKey:FolloweeID;references:ID"`
}

// TableName specifies the table name for Relationship
func (Relationship) TableName() string {
	return "fh_relationships"
}
