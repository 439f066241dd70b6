package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	agentdomain "github.com/samlahq/samla/internal/agent/domain"
	automationdomain "github.com/samlahq/samla/internal/automation/domain"
	calendardomain "github.com/samlahq/samla/internal/calendar/domain"
	identitydomain "github.com/samlahq/samla/internal/identity/domain"
	inboxdomain "github.com/samlahq/samla/internal/inbox/domain"
	leadsdomain "github.com/samlahq/samla/internal/leads/domain"
	plandomain "github.com/samlahq/samla/internal/plan/domain"
	"github.com/samlahq/samla/internal/providers"
	quotadomain "github.com/samlahq/samla/internal/quota/domain"
	subscriptiondomain "github.com/samlahq/samla/internal/subscription/domain"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
	workspacedomain "github.com/samlahq/samla/internal/workspace/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, identitydomain.ErrInvalidToken),
		errors.Is(err, identitydomain.ErrInvalidSubject):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, workspacedomain.ErrNotMember):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case errors.Is(err, usagedomain.ErrQuotaExceeded),
		errors.Is(err, agentdomain.ErrAgentQuotaExceeded):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "quota_exceeded",
			Message: "plan quota exceeded",
		}
	case errors.Is(err, usagedomain.ErrNoSubscription):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "subscription_required",
			Message: "active subscription required",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, quotadomain.ErrPlanIntegrity):
		// Broken plan references were already error-logged at
		// resolution; callers get a generic answer.
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "plan not found",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, providers.ErrUnavailable),
		errors.Is(err, providers.ErrNotConfigured):
		return http.StatusBadGateway, errorPayload{
			Type:    "upstream_unavailable",
			Message: "upstream service unavailable",
		}
	case errors.Is(err, providers.ErrRejected):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "upstream_rejected",
			Message: "request rejected upstream",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isWorkspaceValidationError(err),
		isPlanValidationError(err),
		isInboxValidationError(err),
		isAgentValidationError(err),
		isLeadValidationError(err),
		isCalendarValidationError(err),
		isAutomationValidationError(err),
		isQuotaValidationError(err),
		isUsageValidationError(err):
		return true
	default:
		return false
	}
}

func isWorkspaceValidationError(err error) bool {
	return errors.Is(err, workspacedomain.ErrInvalidName) ||
		errors.Is(err, workspacedomain.ErrInvalidCountry) ||
		errors.Is(err, workspacedomain.ErrInvalidUser) ||
		errors.Is(err, workspacedomain.ErrInvalidRole) ||
		errors.Is(err, workspacedomain.ErrReservedName)
}

func isPlanValidationError(err error) bool {
	return errors.Is(err, plandomain.ErrInvalidPlanCode) ||
		errors.Is(err, plandomain.ErrInvalidPlanName) ||
		errors.Is(err, plandomain.ErrInvalidRegionCode) ||
		errors.Is(err, plandomain.ErrInvalidCountry) ||
		errors.Is(err, plandomain.ErrInvalidCurrency) ||
		errors.Is(err, plandomain.ErrInvalidLimitMode) ||
		errors.Is(err, plandomain.ErrInvalidQuota) ||
		errors.Is(err, subscriptiondomain.ErrInvalidWorkspace) ||
		errors.Is(err, subscriptiondomain.ErrInvalidPlan)
}

func isInboxValidationError(err error) bool {
	return errors.Is(err, inboxdomain.ErrInvalidWorkspace) ||
		errors.Is(err, inboxdomain.ErrInvalidContact) ||
		errors.Is(err, inboxdomain.ErrInvalidBody) ||
		errors.Is(err, inboxdomain.ErrUnsupportedChannel)
}

func isAgentValidationError(err error) bool {
	return errors.Is(err, agentdomain.ErrInvalidWorkspace) ||
		errors.Is(err, agentdomain.ErrInvalidName) ||
		errors.Is(err, agentdomain.ErrInvalidChannel) ||
		errors.Is(err, agentdomain.ErrInvalidNumber)
}

func isLeadValidationError(err error) bool {
	return errors.Is(err, leadsdomain.ErrInvalidWorkspace) ||
		errors.Is(err, leadsdomain.ErrInvalidStatus) ||
		errors.Is(err, leadsdomain.ErrInvalidLead)
}

func isCalendarValidationError(err error) bool {
	return errors.Is(err, calendardomain.ErrInvalidWorkspace) ||
		errors.Is(err, calendardomain.ErrInvalidWindow) ||
		errors.Is(err, calendardomain.ErrInvalidTitle)
}

func isAutomationValidationError(err error) bool {
	return errors.Is(err, automationdomain.ErrInvalidWorkspace) ||
		errors.Is(err, automationdomain.ErrInvalidName) ||
		errors.Is(err, automationdomain.ErrInvalidEvent) ||
		errors.Is(err, automationdomain.ErrInvalidAction)
}

func isQuotaValidationError(err error) bool {
	return errors.Is(err, quotadomain.ErrInvalidWorkspace) ||
		errors.Is(err, quotadomain.ErrInvalidOverride)
}

func isUsageValidationError(err error) bool {
	return errors.Is(err, usagedomain.ErrInvalidWorkspace) ||
		errors.Is(err, usagedomain.ErrInvalidKind) ||
		errors.Is(err, usagedomain.ErrInvalidQuantity)
}

func isConflictError(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, workspacedomain.ErrSlugTaken) ||
		errors.Is(err, subscriptiondomain.ErrSubscriptionExists) ||
		errors.Is(err, agentdomain.ErrNumberTaken) ||
		errors.Is(err, calendardomain.ErrWindowConflict) ||
		errors.Is(err, inboxdomain.ErrConversationClosed) ||
		errors.Is(err, plandomain.ErrPlanExists)
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, workspacedomain.ErrWorkspaceNotFound),
		errors.Is(err, identitydomain.ErrUserNotFound),
		errors.Is(err, plandomain.ErrPlanNotFound),
		errors.Is(err, plandomain.ErrRegionNotFound),
		errors.Is(err, plandomain.ErrPlanRegionNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, quotadomain.ErrOverrideNotFound),
		errors.Is(err, agentdomain.ErrAgentNotFound),
		errors.Is(err, inboxdomain.ErrConversationNotFound),
		errors.Is(err, inboxdomain.ErrNoteNotFound),
		errors.Is(err, leadsdomain.ErrLeadNotFound),
		errors.Is(err, calendardomain.ErrAppointmentNotFound),
		errors.Is(err, automationdomain.ErrTriggerNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// validationErrorCode unwraps to the root sentinel so wrapped errors
// still surface their bare code.
func validationErrorCode(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}
