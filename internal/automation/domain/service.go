package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidWorkspace = errors.New("invalid_workspace")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidEvent     = errors.New("invalid_event")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrTriggerNotFound  = errors.New("trigger_not_found")
)

type CreateTriggerRequest struct {
	WorkspaceID snowflake.ID `json:"workspace_id"`
	Name        string       `json:"name"`
	EventKind   EventKind    `json:"event_kind"`
	Action      ActionKind   `json:"action"`
	Webhook     WebhookConfig `json:"webhook"`
}

// Service manages triggers and dispatches events against them.
type Service interface {
	Create(ctx context.Context, req CreateTriggerRequest) (*Trigger, error)
	List(ctx context.Context, workspaceID snowflake.ID) ([]Trigger, error)
	SetActive(ctx context.Context, workspaceID, triggerID snowflake.ID, active bool) error
	Delete(ctx context.Context, workspaceID, triggerID snowflake.ID) error

	// Fire runs every active trigger of the workspace matching kind.
	// Action failures are logged and never propagated.
	Fire(ctx context.Context, workspaceID snowflake.ID, kind EventKind, payload map[string]any)
}
