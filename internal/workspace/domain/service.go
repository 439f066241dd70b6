package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateWorkspaceRequest struct {
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
}

type WorkspaceResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	CountryCode string `json:"country_code"`
}

type WorkspaceListItem struct {
	ID        snowflake.ID `json:"id"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug"`
	Role      string       `json:"role"`
	CreatedAt string       `json:"created_at"`
}

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateWorkspaceRequest) (*WorkspaceResponse, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Workspace, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]WorkspaceListItem, error)
	MemberRole(ctx context.Context, workspaceID, userID snowflake.ID) (string, error)
	AddMember(ctx context.Context, workspaceID, userID snowflake.ID, role string) error
	// CountSeats returns current member count, used to sync the seats
	// usage counter.
	CountSeats(ctx context.Context, workspaceID snowflake.ID) (int, error)
}

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidCountry    = errors.New("invalid_country")
	ErrInvalidUser       = errors.New("invalid_user")
	ErrInvalidRole       = errors.New("invalid_role")
	ErrReservedName      = errors.New("reserved_name")
	ErrSlugTaken         = errors.New("slug_taken")
	ErrWorkspaceNotFound = errors.New("workspace_not_found")
	ErrNotMember         = errors.New("not_member")
)
