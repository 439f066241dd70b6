// Package domain contains persistence models for platform users.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is the local shadow of an identity-provider account. Authentication
// itself is delegated to the IdP; this row only carries what the platform
// needs for membership and staff decisions.
type User struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Subject     string       `gorm:"type:text;not null;uniqueIndex:ux_users_subject" json:"subject"`
	Email       string       `gorm:"type:text;not null;index" json:"email"`
	DisplayName string       `gorm:"type:text" json:"display_name"`
	// IsStaff is set out-of-band by operators, never self-service.
	IsStaff   bool      `gorm:"not null;default:false" json:"is_staff"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
