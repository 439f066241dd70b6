package server

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
	workspacedomain "github.com/samlahq/samla/internal/workspace/domain"
	"go.uber.org/zap"
)

func (s *Server) GetMe(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) CreateWorkspace(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req workspacedomain.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ws, err := s.workspaceSvc.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	workspaceID, err := snowflake.ParseString(ws.ID)
	if err == nil {
		if err := s.authzSvc.Grant(c.Request.Context(), user.ID, workspaceID, workspacedomain.RoleOwner); err != nil {
			s.log.Error("owner grant failed",
				zap.String("workspace_id", ws.ID),
				zap.Error(err),
			)
		}
	}

	c.JSON(http.StatusCreated, ws)
}

func (s *Server) ListMyWorkspaces(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	items, err := s.workspaceSvc.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspaces": items})
}

func (s *Server) GetWorkspace(c *gin.Context) {
	ws, err := s.workspaceSvc.GetByID(c.Request.Context(), currentWorkspaceID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (s *Server) AddMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := snowflake.ParseString(req.UserID)
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_user", "invalid user id"))
		return
	}

	workspaceID := currentWorkspaceID(c)
	if err := s.workspaceSvc.AddMember(c.Request.Context(), workspaceID, userID, req.Role); err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.authzSvc.Grant(c.Request.Context(), userID, workspaceID, req.Role); err != nil {
		AbortWithError(c, err)
		return
	}

	s.syncSeats(c, workspaceID)
	statusOK(c)
}

// syncSeats pushes the member count into the seats usage counter. Seat
// tracking is best effort, the membership write already committed.
func (s *Server) syncSeats(c *gin.Context, workspaceID snowflake.ID) {
	seats, err := s.workspaceSvc.CountSeats(c.Request.Context(), workspaceID)
	if err != nil {
		s.log.Warn("seat count failed",
			zap.String("workspace_id", workspaceID.String()),
			zap.Error(err),
		)
		return
	}

	err = s.usageSvc.SyncSeats(c.Request.Context(), workspaceID, seats)
	if err != nil && !errors.Is(err, usagedomain.ErrNoSubscription) {
		s.log.Warn("seat sync failed",
			zap.String("workspace_id", workspaceID.String()),
			zap.Error(err),
		)
	}
}
