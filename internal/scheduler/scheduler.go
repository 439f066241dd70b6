// Package scheduler drives the billing clock: renewal advancement and
// usage period rollover.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/samlahq/samla/internal/clock"
	subdomain "github.com/samlahq/samla/internal/subscription/domain"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
)

const tickInterval = 5 * time.Minute

// Scheduler sweeps active subscriptions on an interval. Every sweep is
// idempotent; a missed tick is caught up by the next one.
type Scheduler struct {
	log   *zap.Logger
	subs  subdomain.Service
	usage usagedomain.Service
	clock clock.Clock

	cancel context.CancelFunc
	done   chan struct{}
}

func New(log *zap.Logger, subs subdomain.Service, usage usagedomain.Service, clk clock.Clock) *Scheduler {
	return &Scheduler{
		log:   log.Named("scheduler"),
		subs:  subs,
		usage: usage,
		clock: clk,
	}
}

// Tick runs one sweep: subscriptions past their renewal date advance
// (or cancel), and the fresh billing period gets its counter row.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.clock.Now()

	subs, err := s.subs.ListActive(ctx)
	if err != nil {
		return err
	}

	for i := range subs {
		sub := &subs[i]
		if sub.RenewsAt.After(now) {
			continue
		}

		if err := s.subs.AdvanceRenewal(ctx, sub.ID, now); err != nil {
			s.log.Error("renewal advance failed",
				zap.Int64("subscription_id", int64(sub.ID)), zap.Error(err))
			continue
		}

		if sub.CancelAtPeriodEnd {
			s.log.Info("subscription canceled at period end",
				zap.Int64("workspace_id", int64(sub.WorkspaceID)))
			continue
		}

		if _, err := s.usage.EnsureCurrentPeriod(ctx, sub.WorkspaceID); err != nil {
			s.log.Error("period open failed",
				zap.Int64("workspace_id", int64(sub.WorkspaceID)), zap.Error(err))
			continue
		}

		s.log.Info("billing period rolled over",
			zap.Int64("workspace_id", int64(sub.WorkspaceID)))
	}

	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.log.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

// Start launches the sweep loop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
}

// Stop halts the loop and waits for the running sweep to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, s *Scheduler) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				s.Start()
				return nil
			},
			OnStop: func(context.Context) error {
				s.Stop()
				return nil
			},
		})
	}),
)
