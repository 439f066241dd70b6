package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateWorkspace(ctx context.Context, ws *Workspace) error
	FindByID(ctx context.Context, id snowflake.ID) (*Workspace, error)
	SlugExists(ctx context.Context, slug string) (bool, error)

	AddMember(ctx context.Context, member *WorkspaceMember) error
	FindMember(ctx context.Context, workspaceID, userID snowflake.ID) (*WorkspaceMember, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]WorkspaceListItem, error)
	CountMembers(ctx context.Context, workspaceID snowflake.ID) (int, error)
}
