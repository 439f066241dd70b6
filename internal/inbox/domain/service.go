package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	agentdomain "github.com/samlahq/samla/internal/agent/domain"
	"github.com/samlahq/samla/pkg/db/pagination"
)

var (
	ErrInvalidWorkspace     = errors.New("invalid_workspace")
	ErrInvalidContact       = errors.New("invalid_contact")
	ErrInvalidBody          = errors.New("invalid_body")
	ErrConversationNotFound = errors.New("conversation_not_found")
	ErrConversationClosed   = errors.New("conversation_closed")
	ErrNoteNotFound         = errors.New("note_not_found")

	// ErrUnsupportedChannel is returned for outbound text on a voice
	// conversation; those threads are call transcripts.
	ErrUnsupportedChannel = errors.New("unsupported_channel")
)

// InboundMessage is a message arriving from an outside contact.
type InboundMessage struct {
	WorkspaceID snowflake.ID        `json:"workspace_id"`
	AgentID     snowflake.ID        `json:"agent_id"`
	Channel     agentdomain.Channel `json:"channel"`
	ContactE164 string              `json:"contact_e164"`
	ContactName string              `json:"contact_name"`
	Body        string              `json:"body"`
	ProviderRef string              `json:"-"`
}

// ConversationPage is one page of a workspace's inbox.
type ConversationPage struct {
	Conversations []Conversation      `json:"conversations"`
	PageInfo      pagination.PageInfo `json:"page_info"`
}

// Service is the unified inbox.
type Service interface {
	// AppendInbound files an inbound message, opening a conversation on
	// first contact. Opening a conversation records a usage event and is
	// blocked by hard limits.
	AppendInbound(ctx context.Context, msg InboundMessage) (*Message, error)

	// AppendOutbound sends a reply through the messaging adapter and
	// stores it.
	AppendOutbound(ctx context.Context, workspaceID, conversationID snowflake.ID, body string) (*Message, error)

	ListConversations(ctx context.Context, workspaceID snowflake.ID, page pagination.Pagination) (*ConversationPage, error)
	GetConversation(ctx context.Context, workspaceID, conversationID snowflake.ID) (*Conversation, error)
	ListMessages(ctx context.Context, workspaceID, conversationID snowflake.ID, limit int) ([]Message, error)
	CloseConversation(ctx context.Context, workspaceID, conversationID snowflake.ID) error

	AddNote(ctx context.Context, workspaceID, conversationID, authorID snowflake.ID, body string) (*ConversationNote, error)
	ListNotes(ctx context.Context, workspaceID, conversationID snowflake.ID) ([]ConversationNote, error)
	DeleteNote(ctx context.Context, workspaceID, noteID snowflake.ID) error
}
