package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidWorkspace = errors.New("invalid_workspace")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidChannel   = errors.New("invalid_channel")
	ErrInvalidNumber    = errors.New("invalid_number")
	ErrNumberTaken      = errors.New("number_taken")
	ErrAgentNotFound    = errors.New("agent_not_found")

	// ErrAgentQuotaExceeded is returned on hard-limited plans when a
	// workspace already runs its full complement of agents.
	ErrAgentQuotaExceeded = errors.New("agent_quota_exceeded")
)

type CreateAgentRequest struct {
	WorkspaceID  snowflake.ID `json:"workspace_id"`
	Name         string       `json:"name"`
	Channel      Channel      `json:"channel"`
	PhoneNumber  string       `json:"phone_number"`
	Greeting     string       `json:"greeting"`
	VoiceID      string       `json:"voice_id"`
	SystemPrompt string       `json:"system_prompt"`
}

type UpdateAgentRequest struct {
	Name         *string `json:"name"`
	Greeting     *string `json:"greeting"`
	VoiceID      *string `json:"voice_id"`
	SystemPrompt *string `json:"system_prompt"`
	IsActive     *bool   `json:"is_active"`
}

// Service manages agent configuration.
type Service interface {
	Create(ctx context.Context, req CreateAgentRequest) (*Agent, error)
	Update(ctx context.Context, workspaceID, agentID snowflake.ID, req UpdateAgentRequest) (*Agent, error)
	Get(ctx context.Context, workspaceID, agentID snowflake.ID) (*Agent, error)
	List(ctx context.Context, workspaceID snowflake.ID) ([]Agent, error)
	Delete(ctx context.Context, workspaceID, agentID snowflake.ID) error

	// FindByNumber resolves the active agent answering a number on a
	// channel. Returns nil without error when no agent matches.
	FindByNumber(ctx context.Context, channel Channel, number string) (*Agent, error)
}
