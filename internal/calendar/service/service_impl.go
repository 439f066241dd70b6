package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	autodomain "github.com/samlahq/samla/internal/automation/domain"
	"github.com/samlahq/samla/internal/calendar/domain"
	"github.com/samlahq/samla/internal/clock"
	"github.com/samlahq/samla/internal/providers"
	"github.com/samlahq/samla/internal/providers/calendarsync"
)

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	external calendarsync.Provider
	autos    autodomain.Service
	clock    clock.Clock
	genID    *snowflake.Node
}

func NewService(
	conn *gorm.DB,
	log *zap.Logger,
	external calendarsync.Provider,
	autos autodomain.Service,
	clk clock.Clock,
	genID *snowflake.Node,
) domain.Service {
	return &service{
		db:       conn,
		log:      log.Named("calendar.service"),
		external: external,
		autos:    autos,
		clock:    clk,
		genID:    genID,
	}
}

func (s *service) Book(ctx context.Context, req domain.BookRequest) (*domain.Appointment, error) {
	if req.WorkspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if req.StartsAt.IsZero() || !req.EndsAt.After(req.StartsAt) {
		return nil, domain.ErrInvalidWindow
	}

	var overlapping int64
	err := s.db.WithContext(ctx).Model(&domain.Appointment{}).
		Where("workspace_id = ? AND status = ? AND starts_at < ? AND ends_at > ?",
			req.WorkspaceID, domain.AppointmentBooked, req.EndsAt, req.StartsAt).
		Count(&overlapping).Error
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, domain.ErrWindowConflict
	}

	now := s.clock.Now()
	appt := &domain.Appointment{
		ID:             s.genID.Generate(),
		WorkspaceID:    req.WorkspaceID,
		LeadID:         req.LeadID,
		ConversationID: req.ConversationID,
		Title:          title,
		Attendee:       strings.TrimSpace(req.Attendee),
		StartsAt:       req.StartsAt.UTC(),
		EndsAt:         req.EndsAt.UTC(),
		Status:         domain.AppointmentBooked,
		CalendarRef:    req.CalendarRef,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if req.CalendarRef != "" {
		ev, err := s.external.CreateEvent(ctx, req.CalendarRef, calendarsync.Event{
			Title:    title,
			StartsAt: appt.StartsAt,
			EndsAt:   appt.EndsAt,
			Attendee: appt.Attendee,
		})
		switch {
		case err == nil:
			appt.ExternalRef = ev.ExternalID
		case errors.Is(err, providers.ErrNotConfigured):
			s.log.Debug("calendar sync skipped, no account connected")
		default:
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Create(appt).Error; err != nil {
		return nil, err
	}

	s.autos.Fire(ctx, req.WorkspaceID, autodomain.EventAppointmentBooked, map[string]any{
		"appointment_id": appt.ID.String(),
		"starts_at":      appt.StartsAt,
	})

	return appt, nil
}

func (s *service) List(ctx context.Context, workspaceID snowflake.ID, from, to time.Time) ([]domain.Appointment, error) {
	if workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	q := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("starts_at ASC")
	if !from.IsZero() {
		q = q.Where("starts_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("starts_at < ?", to)
	}

	var appointments []domain.Appointment
	err := q.Find(&appointments).Error
	return appointments, err
}

func (s *service) Get(ctx context.Context, workspaceID, appointmentID snowflake.ID) (*domain.Appointment, error) {
	if workspaceID == 0 || appointmentID == 0 {
		return nil, domain.ErrAppointmentNotFound
	}

	var appt domain.Appointment
	err := s.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", appointmentID, workspaceID).
		First(&appt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &appt, nil
}

func (s *service) Cancel(ctx context.Context, workspaceID, appointmentID snowflake.ID) error {
	appt, err := s.Get(ctx, workspaceID, appointmentID)
	if err != nil {
		return err
	}
	if appt.Status == domain.AppointmentCanceled {
		return nil
	}

	if appt.ExternalRef != "" && appt.CalendarRef != "" {
		err := s.external.DeleteEvent(ctx, appt.CalendarRef, appt.ExternalRef)
		if err != nil && !errors.Is(err, providers.ErrNotConfigured) {
			// The local record still cancels; the orphaned external
			// event is logged for manual cleanup.
			s.log.Warn("external calendar delete failed",
				zap.Int64("appointment_id", int64(appt.ID)), zap.Error(err))
		}
	}

	appt.Status = domain.AppointmentCanceled
	appt.UpdatedAt = s.clock.Now()
	return s.db.WithContext(ctx).Save(appt).Error
}
