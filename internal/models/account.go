package models

import (
	"database/sql"
	"time"
)

// Account represents a Fieldhouse user account
type Account struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Handle    string    `gorm:"type:varchar(32);not null;uniqueIndex:fh_accounts_ux1;column:handle"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Profile fields
	DisplayName  sql.NullString `gorm:"type:varchar(40);column:display_name"`
	Bio          sql.NullString `gorm:"type:varchar(160);column:bio"`
	Sport        sql.NullString `gorm:"type:varchar(30);column:sport"`
	ProfileImage string         `gorm:"type:varchar(1024);not null;default:'';column:profile_image"`

	// Privacy: follow requests to a private account stay pending until
	// the account owner responds
	IsPrivate bool `gorm:"not null;default:false;column:is_private"`

	// Social stats
	Followers int64 `gorm:"not null;default:0;column:followers"`
	Following int64 `gorm:"not null;default:0;column:following"`
	PostCount int64 `gorm:"not null;default:0;column:post_count"`

	// Activity tracking
	LastreadAt time.Time `gorm:"not null;default:'1970-01-01 00:00:00';column:lastread_at"`
	ActiveAt   time.Time `gorm:"not null;default:'1970-01-01 00:00:00';column:active_at"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "fh_accounts"
}
