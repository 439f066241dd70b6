package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/samlahq/samla/internal/providers"
	subscriptiondomain "github.com/samlahq/samla/internal/subscription/domain"
	"go.uber.org/zap"
)

func (s *Server) ListPlans(c *gin.Context) {
	plans, err := s.planSvc.ListPlans(c.Request.Context(), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (s *Server) ListVoices(c *gin.Context) {
	voices, err := s.voiceProvider.ListVoices(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"voices": voices})
}

type createSubscriptionRequest struct {
	PlanCode string `json:"plan_code"`
}

func (s *Server) CreateSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	workspaceID := currentWorkspaceID(c)
	ws, err := s.workspaceSvc.GetByID(c.Request.Context(), workspaceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Pricing region follows the workspace's country, never client input.
	regionCode, err := s.planSvc.RegionForCountry(c.Request.Context(), ws.CountryCode)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	user := currentUser(c)
	customerRef, err := s.billingProvider.CreateCustomer(c.Request.Context(), workspaceID.String(), ws.Name, user.Email)
	if err != nil {
		if !errors.Is(err, providers.ErrNotConfigured) {
			AbortWithError(c, err)
			return
		}
		s.log.Debug("billing provider not configured, subscription proceeds without customer ref",
			zap.String("workspace_id", workspaceID.String()),
		)
	}

	sub, err := s.subscriptionSvc.Create(c.Request.Context(), subscriptiondomain.CreateSubscriptionRequest{
		WorkspaceID:        workspaceID,
		PlanCode:           req.PlanCode,
		RegionCode:         regionCode,
		BillingCustomerRef: customerRef,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.quotaSvc.Invalidate(workspaceID)

	if _, err := s.usageSvc.EnsureCurrentPeriod(c.Request.Context(), workspaceID); err != nil {
		s.log.Warn("initial usage period open failed",
			zap.String("workspace_id", workspaceID.String()),
			zap.Error(err),
		)
	}
	s.syncSeats(c, workspaceID)

	c.JSON(http.StatusCreated, sub)
}

func (s *Server) GetSubscription(c *gin.Context) {
	sub, err := s.subscriptionSvc.GetByWorkspace(c.Request.Context(), currentWorkspaceID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if sub == nil {
		AbortWithError(c, subscriptiondomain.ErrSubscriptionNotFound)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *Server) CancelSubscription(c *gin.Context) {
	workspaceID := currentWorkspaceID(c)
	if err := s.subscriptionSvc.CancelAtPeriodEnd(c.Request.Context(), workspaceID); err != nil {
		AbortWithError(c, err)
		return
	}
	s.quotaSvc.Invalidate(workspaceID)
	statusOK(c)
}

type checkoutRequest struct {
	PlanCode   string `json:"plan_code"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

// CreateCheckout opens a hosted payment page for the plan priced in the
// workspace's region.
func (s *Server) CreateCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SuccessURL == "" || req.CancelURL == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	workspaceID := currentWorkspaceID(c)
	ws, err := s.workspaceSvc.GetByID(c.Request.Context(), workspaceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	regionCode, err := s.planSvc.RegionForCountry(c.Request.Context(), ws.CountryCode)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	planRegion, err := s.planSvc.ResolvePlanRegion(c.Request.Context(), req.PlanCode, regionCode)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if planRegion.BillingPriceRef == "" {
		AbortWithError(c, providers.ErrNotConfigured)
		return
	}

	customerRef, err := s.billingCustomerRef(c, workspaceID, ws.Name)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	url, err := s.billingProvider.CreateCheckoutSession(c.Request.Context(), customerRef, planRegion.BillingPriceRef, req.SuccessURL, req.CancelURL)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

type portalRequest struct {
	ReturnURL string `json:"return_url"`
}

func (s *Server) CreateBillingPortal(c *gin.Context) {
	var req portalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ReturnURL == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	sub, err := s.subscriptionSvc.GetByWorkspace(c.Request.Context(), currentWorkspaceID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if sub == nil || sub.BillingCustomerRef == "" {
		AbortWithError(c, subscriptiondomain.ErrSubscriptionNotFound)
		return
	}

	url, err := s.billingProvider.CreatePortalSession(c.Request.Context(), sub.BillingCustomerRef, req.ReturnURL)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// billingCustomerRef reuses the subscription's customer ref when one
// exists, otherwise registers the workspace upstream.
func (s *Server) billingCustomerRef(c *gin.Context, workspaceID snowflake.ID, workspaceName string) (string, error) {
	sub, err := s.subscriptionSvc.GetByWorkspace(c.Request.Context(), workspaceID)
	if err != nil {
		return "", err
	}
	if sub != nil && sub.BillingCustomerRef != "" {
		return sub.BillingCustomerRef, nil
	}

	user := currentUser(c)
	return s.billingProvider.CreateCustomer(c.Request.Context(), workspaceID.String(), workspaceName, user.Email)
}

func (s *Server) GetQuota(c *gin.Context) {
	res, err := s.quotaSvc.Resolve(c.Request.Context(), currentWorkspaceID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) GetCurrentUsage(c *gin.Context) {
	period, err := s.usageSvc.CurrentPeriod(c.Request.Context(), currentWorkspaceID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

func (s *Server) ListUsagePeriods(c *gin.Context) {
	periods, err := s.usageSvc.ListPeriods(c.Request.Context(), currentWorkspaceID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"periods": periods})
}

func (s *Server) ListUsageEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := s.usageSvc.ListEvents(c.Request.Context(), currentWorkspaceID(c), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
