package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	agentdomain "github.com/samlahq/samla/internal/agent/domain"
	"github.com/samlahq/samla/internal/clock"
	"github.com/samlahq/samla/internal/inbox/domain"
	"github.com/samlahq/samla/internal/providers/messaging"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
	"github.com/samlahq/samla/pkg/db/pagination"
)

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	usage     usagedomain.Service
	agents    agentdomain.Service
	messaging messaging.Provider
	clock     clock.Clock
	genID     *snowflake.Node
}

func NewService(
	conn *gorm.DB,
	log *zap.Logger,
	usage usagedomain.Service,
	agents agentdomain.Service,
	msg messaging.Provider,
	clk clock.Clock,
	genID *snowflake.Node,
) domain.Service {
	return &service{
		db:        conn,
		log:       log.Named("inbox.service"),
		usage:     usage,
		agents:    agents,
		messaging: msg,
		clock:     clk,
		genID:     genID,
	}
}

func (s *service) AppendInbound(ctx context.Context, msg domain.InboundMessage) (*domain.Message, error) {
	if msg.WorkspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}
	contact := strings.TrimSpace(msg.ContactE164)
	if contact == "" {
		return nil, domain.ErrInvalidContact
	}
	if strings.TrimSpace(msg.Body) == "" {
		return nil, domain.ErrInvalidBody
	}

	conv, err := s.findConversation(ctx, msg.WorkspaceID, msg.Channel, contact)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	if conv == nil {
		// First contact opens a conversation, which is itself the billable
		// unit. Hard-limited workspaces get rejected here.
		if _, err := s.usage.Record(ctx, msg.WorkspaceID, usagedomain.UsageKindConversation, 1); err != nil {
			return nil, err
		}

		conv = &domain.Conversation{
			ID:             s.genID.Generate(),
			WorkspaceID:    msg.WorkspaceID,
			AgentID:        msg.AgentID,
			Channel:        msg.Channel,
			ContactE164:    contact,
			ContactName:    strings.TrimSpace(msg.ContactName),
			State:          domain.ConversationOpen,
			LastActivityAt: now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.db.WithContext(ctx).Create(conv).Error; err != nil {
			return nil, err
		}
	}

	message := &domain.Message{
		ID:             s.genID.Generate(),
		ConversationID: conv.ID,
		WorkspaceID:    msg.WorkspaceID,
		Direction:      domain.DirectionInbound,
		Body:           msg.Body,
		ProviderRef:    msg.ProviderRef,
		CreatedAt:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Conversation{}).
			Where("id = ?", conv.ID).
			Updates(map[string]any{
				"state":            domain.ConversationOpen,
				"last_activity_at": now,
				"updated_at":       now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return message, nil
}

func (s *service) AppendOutbound(ctx context.Context, workspaceID, conversationID snowflake.ID, body string) (*domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, domain.ErrInvalidBody
	}

	conv, err := s.GetConversation(ctx, workspaceID, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.State == domain.ConversationClosed {
		return nil, domain.ErrConversationClosed
	}
	if conv.Channel != agentdomain.ChannelWhatsapp {
		return nil, domain.ErrUnsupportedChannel
	}

	agent, err := s.agents.Get(ctx, workspaceID, conv.AgentID)
	if err != nil {
		return nil, err
	}

	out, err := s.messaging.SendText(ctx, agent.PhoneNumber, conv.ContactE164, body)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	message := &domain.Message{
		ID:             s.genID.Generate(),
		ConversationID: conv.ID,
		WorkspaceID:    workspaceID,
		Direction:      domain.DirectionOutbound,
		Body:           body,
		ProviderRef:    out.MessageID,
		CreatedAt:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Conversation{}).
			Where("id = ?", conv.ID).
			Updates(map[string]any{"last_activity_at": now, "updated_at": now}).Error
	})
	if err != nil {
		return nil, err
	}

	return message, nil
}

func (s *service) ListConversations(ctx context.Context, workspaceID snowflake.ID, page pagination.Pagination) (*domain.ConversationPage, error) {
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

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err == nil && cursor.ID != "" {
			if id, perr := snowflake.ParseString(cursor.ID); perr == nil {
				q = q.Where("id < ?", id)
			}
		}
	}

	var conversations []domain.Conversation
	if err := q.Find(&conversations).Error; err != nil {
		return nil, err
	}

	conversations, info := pagination.BuildCursorPageInfo(conversations, limit, func(c domain.Conversation) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: c.ID.String()})
		return token
	})

	return &domain.ConversationPage{Conversations: conversations, PageInfo: info}, nil
}

func (s *service) GetConversation(ctx context.Context, workspaceID, conversationID snowflake.ID) (*domain.Conversation, error) {
	if workspaceID == 0 || conversationID == 0 {
		return nil, domain.ErrConversationNotFound
	}

	var conv domain.Conversation
	err := s.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", conversationID, workspaceID).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (s *service) ListMessages(ctx context.Context, workspaceID, conversationID snowflake.ID, limit int) ([]domain.Message, error) {
	if _, err := s.GetConversation(ctx, workspaceID, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var messages []domain.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (s *service) CloseConversation(ctx context.Context, workspaceID, conversationID snowflake.ID) error {
	tx := s.db.WithContext(ctx).Model(&domain.Conversation{}).
		Where("id = ? AND workspace_id = ?", conversationID, workspaceID).
		Updates(map[string]any{
			"state":      domain.ConversationClosed,
			"updated_at": s.clock.Now(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (s *service) AddNote(ctx context.Context, workspaceID, conversationID, authorID snowflake.ID, body string) (*domain.ConversationNote, error) {
	if strings.TrimSpace(body) == "" {
		return nil, domain.ErrInvalidBody
	}
	if _, err := s.GetConversation(ctx, workspaceID, conversationID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	note := &domain.ConversationNote{
		ID:             s.genID.Generate(),
		ConversationID: conversationID,
		WorkspaceID:    workspaceID,
		AuthorID:       authorID,
		Body:           body,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return nil, err
	}
	return note, nil
}

func (s *service) ListNotes(ctx context.Context, workspaceID, conversationID snowflake.ID) ([]domain.ConversationNote, error) {
	if _, err := s.GetConversation(ctx, workspaceID, conversationID); err != nil {
		return nil, err
	}

	var notes []domain.ConversationNote
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&notes).Error
	return notes, err
}

func (s *service) DeleteNote(ctx context.Context, workspaceID, noteID snowflake.ID) error {
	tx := s.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", noteID, workspaceID).
		Delete(&domain.ConversationNote{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

func (s *service) findConversation(ctx context.Context, workspaceID snowflake.ID, channel agentdomain.Channel, contact string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := s.db.WithContext(ctx).
		Where("workspace_id = ? AND channel = ? AND contact_e164 = ?", workspaceID, channel, contact).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}
