package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samlahq/samla/internal/identity/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(db *gorm.DB, log *zap.Logger, genID *snowflake.Node) domain.Service {
	return &service{
		db:    db,
		log:   log.Named("identity.service"),
		genID: genID,
	}
}

func (s *service) Resolve(ctx context.Context, claims domain.Claims) (*domain.User, error) {
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return nil, domain.ErrInvalidSubject
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:          s.genID.Generate(),
		Subject:     subject,
		Email:       strings.ToLower(strings.TrimSpace(claims.Email)),
		DisplayName: claims.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Keep the shadow row in sync with the IdP on every request; the
	// staff flag is only ever written through SetStaff.
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject"}},
		DoUpdates: clause.Assignments(map[string]any{
			"email":        user.Email,
			"display_name": user.DisplayName,
			"updated_at":   now,
		}),
	}).Create(&user).Error
	if err != nil {
		return nil, err
	}

	var stored domain.User
	if err := s.db.WithContext(ctx).Where("subject = ?", subject).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *service) GetByID(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *service) SetStaff(ctx context.Context, id snowflake.ID, staff bool) error {
	result := s.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_staff": staff, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	s.log.Info("staff flag updated", zap.String("user_id", id.String()), zap.Bool("staff", staff))
	return nil
}
