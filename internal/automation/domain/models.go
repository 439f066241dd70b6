// Package domain contains tenant automation rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventKind names a platform event a trigger can react to.
type EventKind string

const (
	EventMessageReceived   EventKind = "message.received"
	EventCallCompleted     EventKind = "call.completed"
	EventAppointmentBooked EventKind = "appointment.booked"
	EventLeadCreated       EventKind = "lead.created"
)

// ActionKind names what a trigger does when it fires.
type ActionKind string

const (
	// ActionWebhook POSTs the event payload to a tenant-supplied URL.
	ActionWebhook ActionKind = "webhook"
)

// Trigger is a tenant-scoped automation rule. Rows are persisted per
// workspace; one tenant's rules never fire for another's events.
type Trigger struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;index" json:"workspace_id"`

	Name      string     `gorm:"type:text;not null" json:"name"`
	EventKind EventKind  `gorm:"type:text;not null;index" json:"event_kind"`
	Action    ActionKind `gorm:"type:text;not null" json:"action"`

	// ActionConfig holds action-specific settings, for webhooks the
	// target URL and optional secret.
	ActionConfig datatypes.JSON `gorm:"type:jsonb" json:"action_config"`

	IsActive bool `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Trigger) TableName() string { return "automation_triggers" }

// WebhookConfig is the ActionConfig shape for ActionWebhook.
type WebhookConfig struct {
	URL    string `json:"url"`
	Secret string `json:"secret,omitempty"`
}
