// Package routing connects inbound carrier traffic to the agent that
// owns the dialed number.
package routing

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	agentdomain "github.com/samlahq/samla/internal/agent/domain"
	autodomain "github.com/samlahq/samla/internal/automation/domain"
	"github.com/samlahq/samla/internal/config"
	inboxdomain "github.com/samlahq/samla/internal/inbox/domain"
	plandomain "github.com/samlahq/samla/internal/plan/domain"
	quotadomain "github.com/samlahq/samla/internal/quota/domain"
	"github.com/samlahq/samla/internal/routing/markup"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
)

// ErrNoRoute means no active agent answers the dialed number.
var ErrNoRoute = errors.New("no_route")

const (
	rejectUnknownNumber = "Thank you for calling. This number is not in service right now. Goodbye."
	rejectUnavailable   = "Thank you for calling. We cannot take your call right now. Please try again later."
)

// Service turns carrier webhooks into agent sessions and inbox entries.
type Service interface {
	// RouteInboundCall produces the response document for a ringing
	// call. Unknown numbers and exhausted workspaces get a polite
	// reject document, never an error.
	RouteInboundCall(ctx context.Context, to, from string) (*markup.Response, error)

	// RouteInboundMessage files an inbound WhatsApp message with the
	// owning workspace's inbox. Returns ErrNoRoute when no agent owns
	// the number.
	RouteInboundMessage(ctx context.Context, to, from, contactName, body, providerRef string) (*inboxdomain.Message, error)

	// RecordCallCompletion books the call's duration against the
	// workspace, rounded up to whole minutes.
	RecordCallCompletion(ctx context.Context, to string, durationSeconds int) error
}

type service struct {
	log       *zap.Logger
	agents    agentdomain.Service
	inbox     inboxdomain.Service
	quotas    quotadomain.Service
	usage     usagedomain.Service
	autos     autodomain.Service
	streamURL string
}

func NewService(
	cfg config.Config,
	log *zap.Logger,
	agents agentdomain.Service,
	inbox inboxdomain.Service,
	quotas quotadomain.Service,
	usage usagedomain.Service,
	autos autodomain.Service,
) Service {
	return &service{
		log:       log.Named("routing.service"),
		agents:    agents,
		inbox:     inbox,
		quotas:    quotas,
		usage:     usage,
		autos:     autos,
		streamURL: cfg.MediaStreamURL,
	}
}

func (s *service) RouteInboundCall(ctx context.Context, to, from string) (*markup.Response, error) {
	agent, err := s.agents.FindByNumber(ctx, agentdomain.ChannelVoice, to)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		s.log.Info("call to unrouted number", zap.String("to", to))
		return markup.RejectCall(rejectUnknownNumber), nil
	}

	res, err := s.quotas.Resolve(ctx, agent.WorkspaceID)
	if err != nil {
		// Resolution failures include broken plan references; the caller
		// hears a polite reject rather than carrier dead air.
		s.log.Error("quota resolution failed during call routing",
			zap.Int64("workspace_id", int64(agent.WorkspaceID)), zap.Error(err))
		return markup.RejectCall(rejectUnavailable), nil
	}
	if !res.HasSubscription {
		return markup.RejectCall(rejectUnavailable), nil
	}
	if res.Quotas.LimitMode == plandomain.LimitModeHard {
		exhausted, err := s.minutesExhausted(ctx, agent.WorkspaceID, res)
		if err != nil {
			return nil, err
		}
		if exhausted {
			s.log.Warn("call rejected by hard limit",
				zap.Int64("workspace_id", int64(agent.WorkspaceID)))
			return markup.RejectCall(rejectUnavailable), nil
		}
	}

	return markup.AnswerCall(agent.Greeting, s.streamURL+"/"+agent.ID.String()), nil
}

func (s *service) RouteInboundMessage(ctx context.Context, to, from, contactName, body, providerRef string) (*inboxdomain.Message, error) {
	agent, err := s.agents.FindByNumber(ctx, agentdomain.ChannelWhatsapp, to)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		s.log.Info("message to unrouted number", zap.String("to", to))
		return nil, ErrNoRoute
	}

	message, err := s.inbox.AppendInbound(ctx, inboxdomain.InboundMessage{
		WorkspaceID: agent.WorkspaceID,
		AgentID:     agent.ID,
		Channel:     agentdomain.ChannelWhatsapp,
		ContactE164: from,
		ContactName: contactName,
		Body:        body,
		ProviderRef: providerRef,
	})
	if err != nil {
		return nil, err
	}

	s.autos.Fire(ctx, agent.WorkspaceID, autodomain.EventMessageReceived, map[string]any{
		"conversation_id": message.ConversationID.String(),
		"from":            from,
	})

	return message, nil
}

func (s *service) RecordCallCompletion(ctx context.Context, to string, durationSeconds int) error {
	if durationSeconds <= 0 {
		return nil
	}

	agent, err := s.agents.FindByNumber(ctx, agentdomain.ChannelVoice, to)
	if err != nil {
		return err
	}
	if agent == nil {
		return ErrNoRoute
	}

	minutes := (durationSeconds + 59) / 60
	if _, err := s.usage.Record(ctx, agent.WorkspaceID, usagedomain.UsageKindCallMinute, minutes); err != nil {
		// The call already happened; an exhausted hard limit only means
		// the next call gets rejected.
		if errors.Is(err, usagedomain.ErrQuotaExceeded) {
			s.log.Warn("completed call exceeded hard limit",
				zap.Int64("workspace_id", int64(agent.WorkspaceID)),
				zap.Int("minutes", minutes))
			return nil
		}
		return err
	}

	s.autos.Fire(ctx, agent.WorkspaceID, autodomain.EventCallCompleted, map[string]any{
		"agent_id":         agent.ID.String(),
		"duration_seconds": durationSeconds,
	})

	return nil
}

func (s *service) minutesExhausted(ctx context.Context, workspaceID snowflake.ID, res *quotadomain.Resolution) (bool, error) {
	row, err := s.usage.CurrentPeriod(ctx, workspaceID)
	if err != nil {
		return false, err
	}
	if row == nil {
		return res.Quotas.IncludedCallMinutes <= 0, nil
	}
	return row.CallMinutesUsed >= res.Quotas.IncludedCallMinutes, nil
}

var Module = fx.Module("routing.service",
	fx.Provide(NewService),
)
