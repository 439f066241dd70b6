package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	leadsdomain "github.com/samlahq/samla/internal/leads/domain"
	"github.com/samlahq/samla/internal/providers/leadsearch"
	"github.com/samlahq/samla/pkg/db/pagination"
)

func (s *Server) SearchLeads(c *gin.Context) {
	var query leadsearch.Query
	if err := c.ShouldBindJSON(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	found, err := s.leadsSvc.Search(c.Request.Context(), currentWorkspaceID(c), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": found})
}

func (s *Server) CreateLead(c *gin.Context) {
	var lead leadsdomain.Lead
	if err := c.ShouldBindJSON(&lead); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.leadsSvc.CreateManual(c.Request.Context(), currentWorkspaceID(c), lead)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) ListLeads(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status := leadsdomain.LeadStatus(c.Query("status"))
	result, err := s.leadsSvc.List(c.Request.Context(), currentWorkspaceID(c), status, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) GetLead(c *gin.Context) {
	leadID, ok := parseIDParam(c, "lead_id")
	if !ok {
		return
	}

	lead, err := s.leadsSvc.Get(c.Request.Context(), currentWorkspaceID(c), leadID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

type updateLeadStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateLeadStatus(c *gin.Context) {
	leadID, ok := parseIDParam(c, "lead_id")
	if !ok {
		return
	}

	var req updateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	lead, err := s.leadsSvc.UpdateStatus(c.Request.Context(), currentWorkspaceID(c), leadID, leadsdomain.LeadStatus(req.Status))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (s *Server) DeleteLead(c *gin.Context) {
	leadID, ok := parseIDParam(c, "lead_id")
	if !ok {
		return
	}

	if err := s.leadsSvc.Delete(c.Request.Context(), currentWorkspaceID(c), leadID); err != nil {
		AbortWithError(c, err)
		return
	}
	statusOK(c)
}
