package models

import (
	"database/sql"
	"time"
)

// Post represents a post on an account's feed. Only the fields the
// notification fan-out needs are modeled here.
type Post struct {
	ID        int64          `gorm:"primaryKey;autoIncrement;column:id"`
	AuthorID  int64          `gorm:"not null;index;column:author_id"`
	Body      string         `gorm:"type:text;not null;column:body"`
	Sport     sql.NullString `gorm:"type:varchar(30);column:sport"`
	LikeCount int64          `gorm:"not null;default:0;column:like_count"`
	CreatedAt time.Time      `gorm:"not null;column:created_at"`
	UpdatedAt time.Time      `gorm:"not null;column:updated_at"`

	// Relationships
	Author *Account `gorm:"foreignKey:AuthorID;references:ID"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "fh_posts"
}
