package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Claims are the verified assertions extracted from an IdP session token.
type Claims struct {
	Subject     string
	Email       string
	DisplayName string
}

type Service interface {
	// Resolve upserts the shadow user for verified claims and returns it.
	Resolve(ctx context.Context, claims Claims) (*User, error)
	GetByID(ctx context.Context, id snowflake.ID) (*User, error)
	// SetStaff flips the out-of-band staff flag. Caller must already be staff.
	SetStaff(ctx context.Context, id snowflake.ID, staff bool) error
}

var (
	ErrInvalidToken   = errors.New("invalid_token")
	ErrInvalidSubject = errors.New("invalid_subject")
	ErrUserNotFound   = errors.New("user_not_found")
)
