package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/samlahq/samla/internal/automation/domain"
	"github.com/samlahq/samla/internal/clock"
	"github.com/samlahq/samla/internal/observability/metrics"
)

// deliveryTimeout bounds one Fire's whole delivery batch.
const deliveryTimeout = 30 * time.Second

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	client  *http.Client
	metrics *metrics.Metrics
	clock   clock.Clock
	genID   *snowflake.Node
}

func NewService(
	conn *gorm.DB,
	log *zap.Logger,
	client *http.Client,
	m *metrics.Metrics,
	clk clock.Clock,
	genID *snowflake.Node,
) domain.Service {
	return &service{
		db:      conn,
		log:     log.Named("automation.service"),
		client:  client,
		metrics: m,
		clock:   clk,
		genID:   genID,
	}
}

var validEvents = map[domain.EventKind]struct{}{
	domain.EventMessageReceived:   {},
	domain.EventCallCompleted:     {},
	domain.EventAppointmentBooked: {},
	domain.EventLeadCreated:       {},
}

func (s *service) Create(ctx context.Context, req domain.CreateTriggerRequest) (*domain.Trigger, error) {
	if req.WorkspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if _, ok := validEvents[req.EventKind]; !ok {
		return nil, domain.ErrInvalidEvent
	}
	if req.Action != domain.ActionWebhook {
		return nil, domain.ErrInvalidAction
	}

	target, err := url.Parse(strings.TrimSpace(req.Webhook.URL))
	if err != nil || (target.Scheme != "https" && target.Scheme != "http") || target.Host == "" {
		return nil, domain.ErrInvalidAction
	}

	cfg, err := json.Marshal(domain.WebhookConfig{URL: target.String(), Secret: req.Webhook.Secret})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	trigger := &domain.Trigger{
		ID:           s.genID.Generate(),
		WorkspaceID:  req.WorkspaceID,
		Name:         name,
		EventKind:    req.EventKind,
		Action:       req.Action,
		ActionConfig: cfg,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.db.WithContext(ctx).Create(trigger).Error; err != nil {
		return nil, err
	}
	return trigger, nil
}

func (s *service) List(ctx context.Context, workspaceID snowflake.ID) ([]domain.Trigger, error) {
	if workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	var triggers []domain.Trigger
	err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at ASC").
		Find(&triggers).Error
	return triggers, err
}

func (s *service) SetActive(ctx context.Context, workspaceID, triggerID snowflake.ID, active bool) error {
	tx := s.db.WithContext(ctx).Model(&domain.Trigger{}).
		Where("id = ? AND workspace_id = ?", triggerID, workspaceID).
		Updates(map[string]any{"is_active": active, "updated_at": s.clock.Now()})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrTriggerNotFound
	}
	return nil
}

func (s *service) Delete(ctx context.Context, workspaceID, triggerID snowflake.ID) error {
	tx := s.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", triggerID, workspaceID).
		Delete(&domain.Trigger{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrTriggerNotFound
	}
	return nil
}

func (s *service) Fire(ctx context.Context, workspaceID snowflake.ID, kind domain.EventKind, payload map[string]any) {
	var triggers []domain.Trigger
	err := s.db.WithContext(ctx).
		Where("workspace_id = ? AND event_kind = ? AND is_active = ?", workspaceID, kind, true).
		Find(&triggers).Error
	if err != nil {
		s.log.Error("trigger lookup failed", zap.Error(err))
		return
	}

	if len(triggers) == 0 {
		return
	}

	body, err := json.Marshal(map[string]any{
		"event":        string(kind),
		"workspace_id": workspaceID.String(),
		"occurred_at":  s.clock.Now(),
		"data":         payload,
	})
	if err != nil {
		s.log.Error("event payload marshal failed", zap.Error(err))
		return
	}

	// Deliveries leave the caller's goroutine; a slow tenant endpoint
	// must not stall the carrier webhook that raised the event. The
	// context is detached so the caller finishing its request does not
	// cancel deliveries in flight.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		for i := range triggers {
			s.deliver(ctx, &triggers[i], body)
		}
	}()
}

func (s *service) deliver(ctx context.Context, trigger *domain.Trigger, body []byte) {
	var cfg domain.WebhookConfig
	if err := json.Unmarshal(trigger.ActionConfig, &cfg); err != nil {
		s.log.Error("trigger has malformed action config",
			zap.Int64("trigger_id", int64(trigger.ID)), zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		s.log.Warn("trigger delivery failed", zap.Int64("trigger_id", int64(trigger.ID)), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Secret != "" {
		mac := hmac.New(sha256.New, []byte(cfg.Secret))
		mac.Write(body)
		req.Header.Set("X-Samla-Signature", hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.RecordWebhookDelivery(string(trigger.EventKind), "error")
		s.log.Warn("trigger delivery failed", zap.Int64("trigger_id", int64(trigger.ID)), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	outcome := "ok"
	if resp.StatusCode >= 300 {
		outcome = "rejected"
	}
	s.metrics.RecordWebhookDelivery(string(trigger.EventKind), outcome)
}
