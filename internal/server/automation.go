package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	automationdomain "github.com/samlahq/samla/internal/automation/domain"
)

func (s *Server) CreateTrigger(c *gin.Context) {
	var req automationdomain.CreateTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.WorkspaceID = currentWorkspaceID(c)

	trigger, err := s.automationSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trigger)
}

func (s *Server) ListTriggers(c *gin.Context) {
	triggers, err := s.automationSvc.List(c.Request.Context(), currentWorkspaceID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"triggers": triggers})
}

type setTriggerActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (s *Server) SetTriggerActive(c *gin.Context) {
	triggerID, ok := parseIDParam(c, "trigger_id")
	if !ok {
		return
	}

	var req setTriggerActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.automationSvc.SetActive(c.Request.Context(), currentWorkspaceID(c), triggerID, *req.IsActive); err != nil {
		AbortWithError(c, err)
		return
	}
	statusOK(c)
}

func (s *Server) DeleteTrigger(c *gin.Context) {
	triggerID, ok := parseIDParam(c, "trigger_id")
	if !ok {
		return
	}

	if err := s.automationSvc.Delete(c.Request.Context(), currentWorkspaceID(c), triggerID); err != nil {
		AbortWithError(c, err)
		return
	}
	statusOK(c)
}
