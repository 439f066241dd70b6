package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	identitydomain "github.com/samlahq/samla/internal/identity/domain"
	workspacedomain "github.com/samlahq/samla/internal/workspace/domain"
	"github.com/samlahq/samla/internal/workspacectx"
	"go.uber.org/zap"
)

const (
	contextUserKey        = "user"
	contextWorkspaceIDKey = "workspace_id"
	contextRoleKey        = "workspace_role"

	// HeaderProviderSignature carries the webhook HMAC from upstream.
	HeaderProviderSignature = "X-Provider-Signature"
)

// AuthRequired verifies the bearer token and resolves the shadow user.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" || !strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := s.verifier.Verify(raw[len("bearer "):])
		if err != nil {
			AbortWithError(c, err)
			return
		}

		user, err := s.identitySvc.Resolve(c.Request.Context(), claims)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

// WorkspaceContext resolves the :workspace_id path param, checks that the
// authenticated user is a member, and stores the workspace ID on the
// request context so downstream services can read it.
func (s *Server) WorkspaceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		workspaceID, err := snowflake.ParseString(strings.TrimSpace(c.Param("workspace_id")))
		if err != nil {
			AbortWithError(c, workspacedomain.ErrWorkspaceNotFound)
			return
		}

		user := currentUser(c)
		if user == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		role, err := s.workspaceSvc.MemberRole(c.Request.Context(), workspaceID, user.ID)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextWorkspaceIDKey, workspaceID)
		c.Set(contextRoleKey, role)
		c.Request = c.Request.WithContext(workspacectx.WithWorkspaceID(c.Request.Context(), workspaceID))
		c.Next()
	}
}

// RequirePermission gates a route on the casbin policy for the active
// workspace.
func (s *Server) RequirePermission(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		workspaceID := currentWorkspaceID(c)
		if user == nil || workspaceID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		allowed, err := s.authzSvc.Can(c.Request.Context(), user.ID, workspaceID, object, action)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !allowed {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// StaffRequired re-evaluates staff access on every request. Staff status
// is never cached in the session.
func (s *Server) StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		fresh, err := s.identitySvc.GetByID(c.Request.Context(), user.ID)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		decision := s.staffGuard.Require(fresh)
		if !decision.Authorized {
			s.log.Warn("staff access denied",
				zap.String("user_id", user.ID.String()),
				zap.String("reason", decision.Reason),
			)
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// WebhookRateLimited applies the redis token bucket per remote address.
func (s *Server) WebhookRateLimited(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "webhook:" + scope + ":" + c.ClientIP()
		if !s.limiter.Allow(c.Request.Context(), key, s.cfg.RateLimit.WebhookRate, s.cfg.RateLimit.WebhookBurst) {
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

// WebhookSignatureRequired checks the shared-secret HMAC over the raw
// request body. Requests are rejected outright when no secret is
// configured: unauthenticated webhook ingest is never allowed outside
// development.
func (s *Server) WebhookSignatureRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := s.cfg.Providers.WebhookSecret
		if secret == "" {
			if s.cfg.Environment == "development" {
				c.Next()
				return
			}
			AbortWithError(c, ErrUnauthorized)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		want := hex.EncodeToString(mac.Sum(nil))

		got := strings.TrimSpace(c.GetHeader(HeaderProviderSignature))
		if got == "" || !hmac.Equal([]byte(want), []byte(got)) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *identitydomain.User {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*identitydomain.User)
	if !ok {
		return nil
	}
	return user
}

func currentWorkspaceID(c *gin.Context) snowflake.ID {
	value, ok := c.Get(contextWorkspaceIDKey)
	if !ok {
		return 0
	}
	id, ok := value.(snowflake.ID)
	if !ok {
		return 0
	}
	return id
}

func parseIDParam(c *gin.Context, name string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return 0, false
	}
	return id, true
}

func statusOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
