package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/samlahq/samla/internal/config"
	inboxdomain "github.com/samlahq/samla/internal/inbox/domain"
	"github.com/samlahq/samla/internal/ratelimit"
	"github.com/samlahq/samla/internal/routing"
	"github.com/samlahq/samla/internal/routing/markup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRoutingService struct {
	callDoc        *markup.Response
	message        *inboxdomain.Message
	messageErr     error
	completionErr  error
	completedCalls []int
}

func (f *fakeRoutingService) RouteInboundCall(ctx context.Context, to, from string) (*markup.Response, error) {
	_ = ctx
	_ = from
	if f.callDoc != nil {
		return f.callDoc, nil
	}
	return markup.RejectCall("We cannot take your call right now."), nil
}

func (f *fakeRoutingService) RouteInboundMessage(ctx context.Context, to, from, contactName, body, providerRef string) (*inboxdomain.Message, error) {
	_ = ctx
	if f.messageErr != nil {
		return nil, f.messageErr
	}
	return f.message, nil
}

func (f *fakeRoutingService) RecordCallCompletion(ctx context.Context, to string, durationSeconds int) error {
	_ = ctx
	_ = to
	f.completedCalls = append(f.completedCalls, durationSeconds)
	return f.completionErr
}

func newWebhookTestServer(t *testing.T, routingSvc routing.Service, secret string) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{Environment: "test"}
	cfg.Providers.WebhookSecret = secret

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := &Server{
		engine:     engine,
		cfg:        cfg,
		log:        zap.NewNop(),
		routingSvc: routingSvc,
		limiter:    ratelimit.NewLimiter(cfg, zap.NewNop()),
	}
	srv.registerWebhookRoutes()
	return srv
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestTelephonyVoiceWebhookReturnsMarkup(t *testing.T) {
	fake := &fakeRoutingService{
		callDoc: markup.AnswerCall("Hello!", "wss://media.example.com/agent/1"),
	}
	srv := newWebhookTestServer(t, fake, "hook-secret")

	form := url.Values{"To": {"+15550001111"}, "From": {"+15552223333"}}
	body := []byte(form.Encode())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/telephony/voice", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(HeaderProviderSignature, sign("hook-secret", body))

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "xml")
	assert.Contains(t, w.Body.String(), "<Say>Hello!</Say>")
	assert.Contains(t, w.Body.String(), "wss://media.example.com/agent/1")
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	srv := newWebhookTestServer(t, &fakeRoutingService{}, "hook-secret")

	form := url.Values{"To": {"+15550001111"}}
	body := []byte(form.Encode())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/telephony/voice", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(HeaderProviderSignature, "deadbeef")

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookRejectsMissingSecretOutsideDevelopment(t *testing.T) {
	srv := newWebhookTestServer(t, &fakeRoutingService{}, "")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/messaging", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTelephonyStatusWebhookRecordsDuration(t *testing.T) {
	fake := &fakeRoutingService{}
	srv := newWebhookTestServer(t, fake, "hook-secret")

	form := url.Values{
		"To":           {"+15550001111"},
		"CallStatus":   {"completed"},
		"CallDuration": {"95"},
	}
	body := []byte(form.Encode())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/telephony/status", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(HeaderProviderSignature, sign("hook-secret", body))

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, fake.completedCalls, 1)
	assert.Equal(t, 95, fake.completedCalls[0])
}

func TestTelephonyStatusWebhookIgnoresInProgress(t *testing.T) {
	fake := &fakeRoutingService{}
	srv := newWebhookTestServer(t, fake, "hook-secret")

	form := url.Values{
		"To":         {"+15550001111"},
		"CallStatus": {"in-progress"},
	}
	body := []byte(form.Encode())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/telephony/status", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(HeaderProviderSignature, sign("hook-secret", body))

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, fake.completedCalls)
}

func TestMessagingWebhookAcksUnroutedNumbers(t *testing.T) {
	fake := &fakeRoutingService{messageErr: routing.ErrNoRoute}
	srv := newWebhookTestServer(t, fake, "hook-secret")

	body := []byte(`{"to":"+15550009999","from":"+15551112222","body":"hola"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/messaging", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderProviderSignature, sign("hook-secret", body))

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMessagingWebhookReturnsMessageID(t *testing.T) {
	fake := &fakeRoutingService{
		message: &inboxdomain.Message{ID: snowflake.ID(42)},
	}
	srv := newWebhookTestServer(t, fake, "hook-secret")

	body := []byte(`{"to":"+15550001111","from":"+15551112222","body":"hola"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/messaging", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderProviderSignature, sign("hook-secret", body))

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
}
