// Package domain contains persistence models for metered usage.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UsageKind types a billable unit of consumption.
type UsageKind string

const (
	UsageKindCallMinute   UsageKind = "call_minute"
	UsageKindConversation UsageKind = "conversation"
)

// WorkspaceUsageMonthly is the running counter row for one workspace and
// one billing period. Counters never decrease within a period; a new
// period gets a fresh row, the old one is kept as history.
type WorkspaceUsageMonthly struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_usage_period,priority:1" json:"workspace_id"`

	PeriodStart time.Time `gorm:"not null;uniqueIndex:ux_usage_period,priority:2" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null" json:"period_end"`

	CallMinutesUsed           int `gorm:"not null;default:0" json:"call_minutes_used"`
	WhatsappConversationsUsed int `gorm:"not null;default:0" json:"whatsapp_conversations_used"`
	SeatsUsed                 int `gorm:"not null;default:0" json:"seats_used"`
	AgentsUsed                int `gorm:"not null;default:0" json:"agents_used"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (WorkspaceUsageMonthly) TableName() string { return "workspace_usage_monthly" }

// UsageEvent is the immutable log entry behind every counter increment.
type UsageEvent struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;index" json:"workspace_id"`
	Kind        UsageKind    `gorm:"type:text;not null" json:"kind"`
	Quantity    int          `gorm:"not null" json:"quantity"`
	RecordedAt  time.Time    `gorm:"not null" json:"recorded_at"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (UsageEvent) TableName() string { return "usage_events" }
