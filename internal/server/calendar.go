package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	calendardomain "github.com/samlahq/samla/internal/calendar/domain"
)

func (s *Server) BookAppointment(c *gin.Context) {
	var req calendardomain.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.WorkspaceID = currentWorkspaceID(c)

	appt, err := s.calendarSvc.Book(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func (s *Server) ListAppointments(c *gin.Context) {
	now := s.clk.Now()
	from := now
	to := now.AddDate(0, 1, 0)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("from", "invalid_window", "invalid RFC3339 timestamp"))
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("to", "invalid_window", "invalid RFC3339 timestamp"))
			return
		}
		to = parsed
	}

	appts, err := s.calendarSvc.List(c.Request.Context(), currentWorkspaceID(c), from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

func (s *Server) GetAppointment(c *gin.Context) {
	appointmentID, ok := parseIDParam(c, "appointment_id")
	if !ok {
		return
	}

	appt, err := s.calendarSvc.Get(c.Request.Context(), currentWorkspaceID(c), appointmentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (s *Server) CancelAppointment(c *gin.Context) {
	appointmentID, ok := parseIDParam(c, "appointment_id")
	if !ok {
		return
	}

	if err := s.calendarSvc.Cancel(c.Request.Context(), currentWorkspaceID(c), appointmentID); err != nil {
		AbortWithError(c, err)
		return
	}
	statusOK(c)
}
