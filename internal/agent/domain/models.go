// Package domain contains the AI agent configuration model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Channel selects the medium an agent answers on.
type Channel string

const (
	ChannelVoice    Channel = "voice"
	ChannelWhatsapp Channel = "whatsapp"
)

// Agent is a configured AI receptionist bound to a phone number.
type Agent struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;index" json:"workspace_id"`

	Name    string  `gorm:"type:text;not null" json:"name"`
	Channel Channel `gorm:"type:text;not null;uniqueIndex:ux_agents_number,priority:2" json:"channel"`

	// PhoneNumber is E.164. One agent per number per channel across the
	// whole platform; inbound routing depends on it.
	PhoneNumber string `gorm:"type:text;not null;uniqueIndex:ux_agents_number,priority:1" json:"phone_number"`

	Greeting     string `gorm:"type:text;not null" json:"greeting"`
	VoiceID      string `gorm:"type:text" json:"voice_id,omitempty"`
	SystemPrompt string `gorm:"type:text" json:"system_prompt,omitempty"`

	IsActive bool `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Agent) TableName() string { return "agents" }
