// Package domain contains the unified inbox models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	agentdomain "github.com/samlahq/samla/internal/agent/domain"
)

// ConversationState tracks whether a thread still needs attention.
type ConversationState string

const (
	ConversationOpen   ConversationState = "open"
	ConversationClosed ConversationState = "closed"
)

// Direction marks who sent a message.
type Direction string

const (
	DirectionInbound  Direction = "in"
	DirectionOutbound Direction = "out"
)

// Conversation is one thread with an outside contact on one channel.
type Conversation struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_conversations_contact,priority:1" json:"workspace_id"`
	AgentID     snowflake.ID `gorm:"not null" json:"agent_id"`

	Channel     agentdomain.Channel `gorm:"type:text;not null;uniqueIndex:ux_conversations_contact,priority:2" json:"channel"`
	ContactE164 string              `gorm:"type:text;not null;uniqueIndex:ux_conversations_contact,priority:3" json:"contact_e164"`
	ContactName string              `gorm:"type:text" json:"contact_name,omitempty"`

	State          ConversationState `gorm:"type:text;not null;default:'open'" json:"state"`
	LastActivityAt time.Time         `gorm:"not null;index" json:"last_activity_at"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Conversation) TableName() string { return "conversations" }

// Message is one entry in a conversation.
type Message struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	ConversationID snowflake.ID `gorm:"not null;index" json:"conversation_id"`
	WorkspaceID    snowflake.ID `gorm:"not null;index" json:"workspace_id"`

	Direction Direction `gorm:"type:text;not null" json:"direction"`
	Body      string    `gorm:"type:text;not null" json:"body"`

	// ProviderRef is the upstream delivery id, kept for webhook
	// correlation. Opaque to tenants.
	ProviderRef string `gorm:"type:text;index" json:"-"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Message) TableName() string { return "messages" }

// ConversationNote is an internal comment visible to workspace members
// only, never to the outside contact.
type ConversationNote struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	ConversationID snowflake.ID `gorm:"not null;index" json:"conversation_id"`
	WorkspaceID    snowflake.ID `gorm:"not null;index" json:"workspace_id"`
	AuthorID       snowflake.ID `gorm:"not null" json:"author_id"`

	Body string `gorm:"type:text;not null" json:"body"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ConversationNote) TableName() string { return "conversation_notes" }
