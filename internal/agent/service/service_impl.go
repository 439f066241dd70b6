package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/samlahq/samla/internal/agent/domain"
	"github.com/samlahq/samla/internal/clock"
	plandomain "github.com/samlahq/samla/internal/plan/domain"
	quotadomain "github.com/samlahq/samla/internal/quota/domain"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
	"github.com/samlahq/samla/pkg/db"
)

type service struct {
	db     *gorm.DB
	log    *zap.Logger
	quotas quotadomain.Service
	usage  usagedomain.Service
	clock  clock.Clock
	genID  *snowflake.Node
}

func NewService(
	conn *gorm.DB,
	log *zap.Logger,
	quotas quotadomain.Service,
	usage usagedomain.Service,
	clk clock.Clock,
	genID *snowflake.Node,
) domain.Service {
	return &service{
		db:     conn,
		log:    log.Named("agent.service"),
		quotas: quotas,
		usage:  usage,
		clock:  clk,
		genID:  genID,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateAgentRequest) (*domain.Agent, error) {
	if req.WorkspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.Channel != domain.ChannelVoice && req.Channel != domain.ChannelWhatsapp {
		return nil, domain.ErrInvalidChannel
	}

	number := strings.TrimSpace(req.PhoneNumber)
	if !strings.HasPrefix(number, "+") || len(number) < 8 {
		return nil, domain.ErrInvalidNumber
	}

	res, err := s.quotas.Resolve(ctx, req.WorkspaceID)
	if err != nil {
		return nil, err
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&domain.Agent{}).
		Where("workspace_id = ?", req.WorkspaceID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if res.Quotas.LimitMode == plandomain.LimitModeHard && int(count) >= res.Quotas.IncludedAgents {
		return nil, domain.ErrAgentQuotaExceeded
	}

	now := s.clock.Now()
	agent := &domain.Agent{
		ID:           s.genID.Generate(),
		WorkspaceID:  req.WorkspaceID,
		Name:         name,
		Channel:      req.Channel,
		PhoneNumber:  number,
		Greeting:     strings.TrimSpace(req.Greeting),
		VoiceID:      strings.TrimSpace(req.VoiceID),
		SystemPrompt: req.SystemPrompt,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.db.WithContext(ctx).Create(agent).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrNumberTaken
		}
		return nil, err
	}

	if err := s.usage.SyncAgents(ctx, req.WorkspaceID, int(count)+1); err != nil &&
		!errors.Is(err, usagedomain.ErrNoSubscription) {
		s.log.Warn("agent gauge sync failed", zap.Error(err))
	}

	s.log.Info("agent created",
		zap.Int64("workspace_id", int64(req.WorkspaceID)),
		zap.String("channel", string(req.Channel)),
		zap.String("number", number),
	)

	return agent, nil
}

func (s *service) Update(ctx context.Context, workspaceID, agentID snowflake.ID, req domain.UpdateAgentRequest) (*domain.Agent, error) {
	agent, err := s.Get(ctx, workspaceID, agentID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		agent.Name = name
	}
	if req.Greeting != nil {
		agent.Greeting = strings.TrimSpace(*req.Greeting)
	}
	if req.VoiceID != nil {
		agent.VoiceID = strings.TrimSpace(*req.VoiceID)
	}
	if req.SystemPrompt != nil {
		agent.SystemPrompt = *req.SystemPrompt
	}
	if req.IsActive != nil {
		agent.IsActive = *req.IsActive
	}
	agent.UpdatedAt = s.clock.Now()

	if err := s.db.WithContext(ctx).Save(agent).Error; err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *service) Get(ctx context.Context, workspaceID, agentID snowflake.ID) (*domain.Agent, error) {
	if workspaceID == 0 || agentID == 0 {
		return nil, domain.ErrAgentNotFound
	}

	var agent domain.Agent
	err := s.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", agentID, workspaceID).
		First(&agent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, err
	}
	return &agent, nil
}

func (s *service) List(ctx context.Context, workspaceID snowflake.ID) ([]domain.Agent, error) {
	if workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	var agents []domain.Agent
	err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at ASC").
		Find(&agents).Error
	return agents, err
}

func (s *service) Delete(ctx context.Context, workspaceID, agentID snowflake.ID) error {
	tx := s.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", agentID, workspaceID).
		Delete(&domain.Agent{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

func (s *service) FindByNumber(ctx context.Context, channel domain.Channel, number string) (*domain.Agent, error) {
	var agent domain.Agent
	err := s.db.WithContext(ctx).
		Where("channel = ? AND phone_number = ? AND is_active = ?", channel, strings.TrimSpace(number), true).
		First(&agent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &agent, nil
}
