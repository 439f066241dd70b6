package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	plandomain "github.com/samlahq/samla/internal/plan/domain"
	quotadomain "github.com/samlahq/samla/internal/quota/domain"
	"go.uber.org/zap"
)

func (s *Server) AdminCreatePlan(c *gin.Context) {
	var req plandomain.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	plan, err := s.planSvc.CreatePlan(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func (s *Server) AdminListPlans(c *gin.Context) {
	plans, err := s.planSvc.ListPlans(c.Request.Context(), true)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

type setPlanActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (s *Server) AdminSetPlanActive(c *gin.Context) {
	var req setPlanActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.planSvc.SetPlanActive(c.Request.Context(), c.Param("plan_code"), *req.IsActive); err != nil {
		AbortWithError(c, err)
		return
	}
	statusOK(c)
}

func (s *Server) AdminUpsertPlanRegion(c *gin.Context) {
	var req plandomain.UpsertPlanRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.PlanCode = c.Param("plan_code")
	req.RegionCode = c.Param("region_code")

	planRegion, err := s.planSvc.UpsertPlanRegion(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Info("plan region upserted",
		zap.String("plan_code", planRegion.PlanCode),
		zap.String("region_code", planRegion.RegionCode),
		zap.Int64("version", planRegion.Version),
	)
	c.JSON(http.StatusOK, planRegion)
}

func (s *Server) AdminListRegions(c *gin.Context) {
	regions, err := s.planSvc.ListRegions(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"regions": regions})
}

func (s *Server) AdminListPlanRegions(c *gin.Context) {
	planRegions, err := s.planSvc.ListPlanRegions(c.Request.Context(), c.Param("region_code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan_regions": planRegions})
}

func (s *Server) AdminUpsertCostAssumption(c *gin.Context) {
	var assumption plandomain.RegionCostAssumption
	if err := c.ShouldBindJSON(&assumption); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	assumption.RegionCode = c.Param("region_code")

	if err := s.planSvc.UpsertCostAssumption(c.Request.Context(), assumption); err != nil {
		AbortWithError(c, err)
		return
	}
	statusOK(c)
}

func (s *Server) AdminGetOverride(c *gin.Context) {
	workspaceID, ok := parseIDParam(c, "workspace_id")
	if !ok {
		return
	}

	override, err := s.quotaSvc.GetOverride(c.Request.Context(), workspaceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, override)
}

func (s *Server) AdminSetOverride(c *gin.Context) {
	workspaceID, ok := parseIDParam(c, "workspace_id")
	if !ok {
		return
	}

	var req quotadomain.SetOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.WorkspaceID = workspaceID
	req.UpdatedBy = currentUser(c).ID

	override, err := s.quotaSvc.SetOverride(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, override)
}

func (s *Server) AdminClearOverride(c *gin.Context) {
	workspaceID, ok := parseIDParam(c, "workspace_id")
	if !ok {
		return
	}

	if err := s.quotaSvc.ClearOverride(c.Request.Context(), workspaceID); err != nil {
		AbortWithError(c, err)
		return
	}
	statusOK(c)
}

func (s *Server) AdminUsageReport(c *gin.Context) {
	report, err := s.billingReportSvc.AggregateUsageByRegion(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"regions": report})
}

func (s *Server) AdminMarginReport(c *gin.Context) {
	report, err := s.billingReportSvc.CalculateMarginsByRegion(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"regions": report})
}

type setStaffRequest struct {
	IsStaff *bool `json:"is_staff"`
}

func (s *Server) AdminSetStaff(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	var req setStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsStaff == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.identitySvc.SetStaff(c.Request.Context(), userID, *req.IsStaff); err != nil {
		AbortWithError(c, err)
		return
	}
	statusOK(c)
}
