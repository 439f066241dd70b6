package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	autodomain "github.com/samlahq/samla/internal/automation/domain"
	"github.com/samlahq/samla/internal/clock"
	"github.com/samlahq/samla/internal/leads/domain"
	"github.com/samlahq/samla/internal/providers/leadsearch"
	"github.com/samlahq/samla/pkg/db/pagination"
)

type service struct {
	db     *gorm.DB
	log    *zap.Logger
	search leadsearch.Provider
	autos  autodomain.Service
	clock  clock.Clock
	genID  *snowflake.Node
}

func NewService(
	conn *gorm.DB,
	log *zap.Logger,
	search leadsearch.Provider,
	autos autodomain.Service,
	clk clock.Clock,
	genID *snowflake.Node,
) domain.Service {
	return &service{
		db:     conn,
		log:    log.Named("leads.service"),
		search: search,
		autos:  autos,
		clock:  clk,
		genID:  genID,
	}
}

var validStatuses = map[domain.LeadStatus]struct{}{
	domain.LeadStatusNew:       {},
	domain.LeadStatusContacted: {},
	domain.LeadStatusQualified: {},
	domain.LeadStatusLost:      {},
}

func (s *service) Search(ctx context.Context, workspaceID snowflake.ID, q leadsearch.Query) ([]domain.Lead, error) {
	if workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	people, err := s.search.SearchPeople(ctx, q)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	saved := make([]domain.Lead, 0, len(people))

	for _, p := range people {
		if p.ExternalID != "" {
			var count int64
			err := s.db.WithContext(ctx).Model(&domain.Lead{}).
				Where("workspace_id = ? AND external_ref = ?", workspaceID, p.ExternalID).
				Count(&count).Error
			if err != nil {
				return nil, err
			}
			if count > 0 {
				continue
			}
		}

		lead := domain.Lead{
			ID:          s.genID.Generate(),
			WorkspaceID: workspaceID,
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			Title:       p.Title,
			Company:     p.Company,
			Email:       p.Email,
			Phone:       p.Phone,
			Status:      domain.LeadStatusNew,
			Source:      "search",
			ExternalRef: p.ExternalID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.db.WithContext(ctx).Create(&lead).Error; err != nil {
			return nil, err
		}
		saved = append(saved, lead)

		s.autos.Fire(ctx, workspaceID, autodomain.EventLeadCreated, map[string]any{
			"lead_id": lead.ID.String(),
			"company": lead.Company,
		})
	}

	s.log.Info("lead search completed",
		zap.Int64("workspace_id", int64(workspaceID)),
		zap.Int("hits", len(people)),
		zap.Int("saved", len(saved)),
	)

	return saved, nil
}

func (s *service) CreateManual(ctx context.Context, workspaceID snowflake.ID, lead domain.Lead) (*domain.Lead, error) {
	if workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}
	if strings.TrimSpace(lead.FirstName) == "" && strings.TrimSpace(lead.Company) == "" {
		return nil, domain.ErrInvalidLead
	}

	now := s.clock.Now()
	lead.ID = s.genID.Generate()
	lead.WorkspaceID = workspaceID
	lead.Status = domain.LeadStatusNew
	if lead.Source == "" {
		lead.Source = "manual"
	}
	lead.ExternalRef = ""
	lead.CreatedAt = now
	lead.UpdatedAt = now

	if err := s.db.WithContext(ctx).Create(&lead).Error; err != nil {
		return nil, err
	}

	s.autos.Fire(ctx, workspaceID, autodomain.EventLeadCreated, map[string]any{
		"lead_id": lead.ID.String(),
		"company": lead.Company,
	})

	return &lead, nil
}

func (s *service) List(ctx context.Context, workspaceID snowflake.ID, status domain.LeadStatus, page pagination.Pagination) (*domain.LeadPage, error) {
	if workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	limit := page.PageSize
	if limit <= 0 || limit > 250 {
		limit = 20
	}

	q := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("id DESC").
		Limit(limit + 1)

	if status != "" {
		if _, ok := validStatuses[status]; !ok {
			return nil, domain.ErrInvalidStatus
		}
		q = q.Where("status = ?", status)
	}

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err == nil && cursor.ID != "" {
			if id, perr := snowflake.ParseString(cursor.ID); perr == nil {
				q = q.Where("id < ?", id)
			}
		}
	}

	var leads []domain.Lead
	if err := q.Find(&leads).Error; err != nil {
		return nil, err
	}

	leads, info := pagination.BuildCursorPageInfo(leads, limit, func(l domain.Lead) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: l.ID.String()})
		return token
	})

	return &domain.LeadPage{Leads: leads, PageInfo: info}, nil
}

func (s *service) Get(ctx context.Context, workspaceID, leadID snowflake.ID) (*domain.Lead, error) {
	if workspaceID == 0 || leadID == 0 {
		return nil, domain.ErrLeadNotFound
	}

	var lead domain.Lead
	err := s.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", leadID, workspaceID).
		First(&lead).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, err
	}
	return &lead, nil
}

func (s *service) UpdateStatus(ctx context.Context, workspaceID, leadID snowflake.ID, status domain.LeadStatus) (*domain.Lead, error) {
	if _, ok := validStatuses[status]; !ok {
		return nil, domain.ErrInvalidStatus
	}

	lead, err := s.Get(ctx, workspaceID, leadID)
	if err != nil {
		return nil, err
	}

	lead.Status = status
	lead.UpdatedAt = s.clock.Now()
	if err := s.db.WithContext(ctx).Save(lead).Error; err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *service) Delete(ctx context.Context, workspaceID, leadID snowflake.ID) error {
	tx := s.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", leadID, workspaceID).
		Delete(&domain.Lead{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrLeadNotFound
	}
	return nil
}
