package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidWorkspace    = errors.New("invalid_workspace")
	ErrInvalidWindow       = errors.New("invalid_window")
	ErrInvalidTitle        = errors.New("invalid_title")
	ErrWindowConflict      = errors.New("window_conflict")
	ErrAppointmentNotFound = errors.New("appointment_not_found")
)

type BookRequest struct {
	WorkspaceID    snowflake.ID `json:"workspace_id"`
	LeadID         snowflake.ID `json:"lead_id"`
	ConversationID snowflake.ID `json:"conversation_id"`
	Title          string       `json:"title"`
	Attendee       string       `json:"attendee"`
	StartsAt       time.Time    `json:"starts_at"`
	EndsAt         time.Time    `json:"ends_at"`
	// CalendarRef selects the external calendar to mirror the booking
	// to. Empty keeps the appointment local.
	CalendarRef string `json:"calendar_ref"`
}

// Service books and manages appointments.
type Service interface {
	// Book stores the appointment and mirrors it to the external
	// calendar when one is connected. Overlapping booked appointments
	// are refused.
	Book(ctx context.Context, req BookRequest) (*Appointment, error)

	List(ctx context.Context, workspaceID snowflake.ID, from, to time.Time) ([]Appointment, error)
	Get(ctx context.Context, workspaceID, appointmentID snowflake.ID) (*Appointment, error)
	Cancel(ctx context.Context, workspaceID, appointmentID snowflake.ID) error
}
