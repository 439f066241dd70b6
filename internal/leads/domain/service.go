package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	"github.com/samlahq/samla/internal/providers/leadsearch"
	"github.com/samlahq/samla/pkg/db/pagination"
)

var (
	ErrInvalidWorkspace = errors.New("invalid_workspace")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrInvalidLead      = errors.New("invalid_lead")
	ErrLeadNotFound     = errors.New("lead_not_found")
)

// LeadPage is one page of a workspace's pipeline.
type LeadPage struct {
	Leads    []Lead              `json:"leads"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

// Service runs prospect searches and manages the saved pipeline.
type Service interface {
	// Search queries the contact database and persists new hits as
	// leads. Hits already saved for the workspace are skipped.
	Search(ctx context.Context, workspaceID snowflake.ID, q leadsearch.Query) ([]Lead, error)

	// CreateManual captures a lead by hand, for example from an inbox
	// conversation.
	CreateManual(ctx context.Context, workspaceID snowflake.ID, lead Lead) (*Lead, error)

	List(ctx context.Context, workspaceID snowflake.ID, status LeadStatus, page pagination.Pagination) (*LeadPage, error)
	Get(ctx context.Context, workspaceID, leadID snowflake.ID) (*Lead, error)
	UpdateStatus(ctx context.Context, workspaceID, leadID snowflake.ID, status LeadStatus) (*Lead, error)
	Delete(ctx context.Context, workspaceID, leadID snowflake.ID) error
}
