package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/samlahq/samla/internal/automation/domain"
	"github.com/samlahq/samla/internal/clock"
	"github.com/samlahq/samla/internal/observability/metrics"
	"github.com/samlahq/samla/pkg/db"
)

type automationFixture struct {
	conn  *gorm.DB
	svc   domain.Service
	clock *clock.FakeClock
}

func setupAutomation(t *testing.T) *automationFixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Trigger{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	svc := NewService(conn, zap.NewNop(), &http.Client{Timeout: 5 * time.Second}, m, clk, node)
	return &automationFixture{conn: conn, svc: svc, clock: clk}
}

func TestCreateTriggerValidation(t *testing.T) {
	f := setupAutomation(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.CreateTriggerRequest{
		WorkspaceID: 42,
		Name:        "notify",
		EventKind:   "lead.vanished",
		Action:      domain.ActionWebhook,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)

	_, err = f.svc.Create(ctx, domain.CreateTriggerRequest{
		WorkspaceID: 42,
		Name:        "notify",
		EventKind:   domain.EventLeadCreated,
		Action:      domain.ActionWebhook,
		Webhook:     domain.WebhookConfig{URL: "not a url"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
}

func TestFireDeliversInBackground(t *testing.T) {
	f := setupAutomation(t)
	ctx := context.Background()

	received := make(chan []byte, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- body
		// Hold the request open until the test lets go.
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := f.svc.Create(ctx, domain.CreateTriggerRequest{
		WorkspaceID: 42,
		Name:        "notify",
		EventKind:   domain.EventLeadCreated,
		Action:      domain.ActionWebhook,
		Webhook:     domain.WebhookConfig{URL: srv.URL},
	})
	require.NoError(t, err)

	// Fire must return while the endpoint is still holding the delivery.
	f.svc.Fire(ctx, 42, domain.EventLeadCreated, map[string]any{"lead_id": "7"})

	select {
	case body := <-received:
		var payload struct {
			Event       string         `json:"event"`
			WorkspaceID string         `json:"workspace_id"`
			Data        map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "lead.created", payload.Event)
		assert.Equal(t, "42", payload.WorkspaceID)
		assert.Equal(t, "7", payload.Data["lead_id"])
	case <-time.After(3 * time.Second):
		t.Fatal("delivery never arrived")
	}
}

func TestFireSkipsInactiveTriggers(t *testing.T) {
	f := setupAutomation(t)
	ctx := context.Background()

	hits := make(chan struct{}, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- struct{}{}
	}))
	defer srv.Close()

	trigger, err := f.svc.Create(ctx, domain.CreateTriggerRequest{
		WorkspaceID: 42,
		Name:        "notify",
		EventKind:   domain.EventLeadCreated,
		Action:      domain.ActionWebhook,
		Webhook:     domain.WebhookConfig{URL: srv.URL},
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.SetActive(ctx, 42, trigger.ID, false))

	f.svc.Fire(ctx, 42, domain.EventLeadCreated, nil)

	select {
	case <-hits:
		t.Fatal("inactive trigger fired")
	case <-time.After(300 * time.Millisecond):
	}
}
