package server

import (
	"fmt"
	"net/http"
	"testing"

	agentdomain "github.com/samlahq/samla/internal/agent/domain"
	inboxdomain "github.com/samlahq/samla/internal/inbox/domain"
	"github.com/samlahq/samla/internal/providers"
	quotadomain "github.com/samlahq/samla/internal/quota/domain"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
	workspacedomain "github.com/samlahq/samla/internal/workspace/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantType   string
	}{
		{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{ErrForbidden, http.StatusForbidden, "forbidden"},
		{workspacedomain.ErrNotMember, http.StatusForbidden, "forbidden"},
		{workspacedomain.ErrWorkspaceNotFound, http.StatusNotFound, "not_found"},
		{workspacedomain.ErrSlugTaken, http.StatusConflict, "conflict"},
		{agentdomain.ErrNumberTaken, http.StatusConflict, "conflict"},
		{usagedomain.ErrQuotaExceeded, http.StatusPaymentRequired, "quota_exceeded"},
		{agentdomain.ErrAgentQuotaExceeded, http.StatusPaymentRequired, "quota_exceeded"},
		{usagedomain.ErrNoSubscription, http.StatusPaymentRequired, "subscription_required"},
		{quotadomain.ErrPlanIntegrity, http.StatusNotFound, "not_found"},
		{providers.ErrUnavailable, http.StatusBadGateway, "upstream_unavailable"},
		{providers.ErrRejected, http.StatusUnprocessableEntity, "upstream_rejected"},
		{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{inboxdomain.ErrInvalidBody, http.StatusBadRequest, "validation_error"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		status, payload := mapError(tc.err)
		assert.Equal(t, tc.wantStatus, status, "error %v", tc.err)
		assert.Equal(t, tc.wantType, payload.Type, "error %v", tc.err)
	}
}

func TestMapErrorWrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("create agent: %w", agentdomain.ErrInvalidNumber)
	status, payload := mapError(wrapped)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", payload.Type)
	assert.Equal(t, "number", payload.Errors[0].Field)
}

func TestMapErrorPlanIntegrityMessage(t *testing.T) {
	status, payload := mapError(quotadomain.ErrPlanIntegrity)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "plan not found", payload.Message)
}

func TestMapErrorConcealsDetail(t *testing.T) {
	// Upstream failures must never leak provider response bodies.
	status, payload := mapError(fmt.Errorf("status 503: %w", providers.ErrUnavailable))
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "upstream service unavailable", payload.Message)
}
