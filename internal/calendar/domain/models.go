// Package domain contains appointment booking models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// AppointmentStatus is an appointment's lifecycle state.
type AppointmentStatus string

const (
	AppointmentBooked   AppointmentStatus = "booked"
	AppointmentCanceled AppointmentStatus = "canceled"
)

// Appointment is a meeting booked for a workspace, usually by an agent
// mid-conversation.
type Appointment struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;index" json:"workspace_id"`

	LeadID         snowflake.ID `gorm:"index" json:"lead_id,omitempty"`
	ConversationID snowflake.ID `gorm:"index" json:"conversation_id,omitempty"`

	Title    string    `gorm:"type:text;not null" json:"title"`
	Attendee string    `gorm:"type:text;not null" json:"attendee"`
	StartsAt time.Time `gorm:"not null;index" json:"starts_at"`
	EndsAt   time.Time `gorm:"not null" json:"ends_at"`

	Status AppointmentStatus `gorm:"type:text;not null;default:'booked'" json:"status"`

	// ExternalRef is the upstream calendar event id, empty when the
	// workspace has no calendar account connected.
	ExternalRef string `gorm:"type:text" json:"-"`
	CalendarRef string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Appointment) TableName() string { return "appointments" }
