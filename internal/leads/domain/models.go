// Package domain contains the lead pipeline models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// LeadStatus is the pipeline stage of a lead.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusLost      LeadStatus = "lost"
)

// Lead is a prospective customer saved from a search or captured from a
// conversation.
type Lead struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;index" json:"workspace_id"`

	FirstName string `gorm:"type:text" json:"first_name"`
	LastName  string `gorm:"type:text" json:"last_name"`
	Title     string `gorm:"type:text" json:"title,omitempty"`
	Company   string `gorm:"type:text" json:"company,omitempty"`
	Email     string `gorm:"type:text" json:"email,omitempty"`
	Phone     string `gorm:"type:text" json:"phone,omitempty"`

	Status LeadStatus `gorm:"type:text;not null;default:'new'" json:"status"`
	Source string     `gorm:"type:text;not null" json:"source"`

	// ExternalRef is the upstream contact-database id, used to dedupe
	// repeated searches.
	ExternalRef string `gorm:"type:text;index:ix_leads_external" json:"-"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Lead) TableName() string { return "leads" }
