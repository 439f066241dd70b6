package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samlahq/samla/internal/routing"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
	"go.uber.org/zap"
)

const contentTypeXML = "application/xml; charset=utf-8"

// telephonyVoicePayload is the carrier's form-encoded call event.
type telephonyVoicePayload struct {
	To   string `form:"To"`
	From string `form:"From"`
}

// TelephonyVoiceWebhook answers an inbound call with a routing document.
// The carrier always gets a 200 with markup; quota and routing problems
// surface to the caller as a polite spoken reject.
func (s *Server) TelephonyVoiceWebhook(c *gin.Context) {
	var payload telephonyVoicePayload
	if err := c.ShouldBind(&payload); err != nil || payload.To == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	doc, err := s.routingSvc.RouteInboundCall(c.Request.Context(), payload.To, payload.From)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rendered, err := doc.Render()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, contentTypeXML, []byte(rendered))
}

type telephonyStatusPayload struct {
	To           string `form:"To"`
	CallSid      string `form:"CallSid"`
	CallStatus   string `form:"CallStatus"`
	CallDuration string `form:"CallDuration"`
}

// TelephonyStatusWebhook records billed minutes once the carrier reports
// the call finished.
func (s *Server) TelephonyStatusWebhook(c *gin.Context) {
	var payload telephonyStatusPayload
	if err := c.ShouldBind(&payload); err != nil || payload.To == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	if payload.CallStatus != "" && payload.CallStatus != "completed" {
		statusOK(c)
		return
	}

	seconds, err := strconv.Atoi(payload.CallDuration)
	if err != nil || seconds < 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	err = s.routingSvc.RecordCallCompletion(c.Request.Context(), payload.To, seconds)
	if err != nil {
		if errors.Is(err, routing.ErrNoRoute) {
			// Unrouted status callbacks are acked so the carrier stops
			// retrying them.
			s.log.Info("status callback for unrouted number", zap.String("to", payload.To))
			statusOK(c)
			return
		}
		AbortWithError(c, err)
		return
	}
	statusOK(c)
}

type messagingWebhookPayload struct {
	To          string `json:"to"`
	From        string `json:"from"`
	ContactName string `json:"contact_name"`
	Body        string `json:"body"`
	MessageID   string `json:"message_id"`
}

// MessagingWebhook ingests an inbound text into the owning workspace's
// inbox.
func (s *Server) MessagingWebhook(c *gin.Context) {
	var payload messagingWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.To == "" || payload.From == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	message, err := s.routingSvc.RouteInboundMessage(
		c.Request.Context(),
		payload.To,
		payload.From,
		payload.ContactName,
		payload.Body,
		payload.MessageID,
	)
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrNoRoute):
			s.log.Info("message to unrouted number acked", zap.String("to", payload.To))
			statusOK(c)
		case errors.Is(err, usagedomain.ErrQuotaExceeded),
			errors.Is(err, usagedomain.ErrNoSubscription):
			// The upstream already accepted the message; dropping it is
			// the quota outcome, not a delivery failure.
			s.log.Warn("inbound message dropped by quota",
				zap.String("to", payload.To))
			statusOK(c)
		default:
			AbortWithError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message_id": message.ID.String()})
}
