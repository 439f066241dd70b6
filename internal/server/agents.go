package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	agentdomain "github.com/samlahq/samla/internal/agent/domain"
)

func (s *Server) CreateAgent(c *gin.Context) {
	var req agentdomain.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.WorkspaceID = currentWorkspaceID(c)

	agent, err := s.agentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, agent)
}

func (s *Server) ListAgents(c *gin.Context) {
	agents, err := s.agentSvc.List(c.Request.Context(), currentWorkspaceID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func (s *Server) GetAgent(c *gin.Context) {
	agentID, ok := parseIDParam(c, "agent_id")
	if !ok {
		return
	}

	agent, err := s.agentSvc.Get(c.Request.Context(), currentWorkspaceID(c), agentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

func (s *Server) UpdateAgent(c *gin.Context) {
	agentID, ok := parseIDParam(c, "agent_id")
	if !ok {
		return
	}

	var req agentdomain.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	agent, err := s.agentSvc.Update(c.Request.Context(), currentWorkspaceID(c), agentID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

func (s *Server) DeleteAgent(c *gin.Context) {
	agentID, ok := parseIDParam(c, "agent_id")
	if !ok {
		return
	}

	if err := s.agentSvc.Delete(c.Request.Context(), currentWorkspaceID(c), agentID); err != nil {
		AbortWithError(c, err)
		return
	}
	statusOK(c)
}
