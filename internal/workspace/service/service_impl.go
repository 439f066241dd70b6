package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/samlahq/samla/internal/reserved"
	"github.com/samlahq/samla/internal/workspace/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func NewService(conn *gorm.DB, log *zap.Logger, repo domain.Repository, genID *snowflake.Node) domain.Service {
	return &service{
		db:    conn,
		log:   log.Named("workspace.service"),
		repo:  repo,
		genID: genID,
	}
}

func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateWorkspaceRequest) (*domain.WorkspaceResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	countryCode := strings.ToUpper(strings.TrimSpace(req.CountryCode))
	if len(countryCode) != 2 {
		return nil, domain.ErrInvalidCountry
	}

	if msg := reserved.CheckName(name); msg != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrReservedName, msg)
	}

	candidate := slug.Make(name)
	if reserved.IsReservedSlug(candidate) {
		return nil, fmt.Errorf("%w: slug is reserved", domain.ErrReservedName)
	}

	taken, err := s.repo.SlugExists(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrSlugTaken
	}

	now := time.Now().UTC()
	workspaceID := s.genID.Generate()
	ws := domain.Workspace{
		ID:          workspaceID,
		Name:        name,
		Slug:        candidate,
		CountryCode: countryCode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateWorkspace(ctx, &ws); err != nil {
			return err
		}

		member := domain.WorkspaceMember{
			ID:          s.genID.Generate(),
			WorkspaceID: workspaceID,
			UserID:      userID,
			Role:        domain.RoleOwner,
			CreatedAt:   now,
		}
		return repo.AddMember(ctx, &member)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("workspace created",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("slug", candidate),
	)

	return &domain.WorkspaceResponse{
		ID:          workspaceID.String(),
		Name:        name,
		Slug:        candidate,
		CountryCode: countryCode,
	}, nil
}

func (s *service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Workspace, error) {
	ws, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, domain.ErrWorkspaceNotFound
	}
	return ws, nil
}

func (s *service) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.WorkspaceListItem, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) MemberRole(ctx context.Context, workspaceID, userID snowflake.ID) (string, error) {
	member, err := s.repo.FindMember(ctx, workspaceID, userID)
	if err != nil {
		return "", err
	}
	if member == nil {
		return "", domain.ErrNotMember
	}
	return member.Role, nil
}

func (s *service) AddMember(ctx context.Context, workspaceID, userID snowflake.ID, role string) error {
	switch role {
	case domain.RoleOwner, domain.RoleAdmin, domain.RoleMember:
	default:
		return domain.ErrInvalidRole
	}
	if userID == 0 {
		return domain.ErrInvalidUser
	}

	ws, err := s.repo.FindByID(ctx, workspaceID)
	if err != nil {
		return err
	}
	if ws == nil {
		return domain.ErrWorkspaceNotFound
	}

	member := domain.WorkspaceMember{
		ID:          s.genID.Generate(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	}
	return s.repo.AddMember(ctx, &member)
}

func (s *service) CountSeats(ctx context.Context, workspaceID snowflake.ID) (int, error) {
	return s.repo.CountMembers(ctx, workspaceID)
}
