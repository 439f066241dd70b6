package identity

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samlahq/samla/internal/config"
	"github.com/samlahq/samla/internal/identity/domain"
)

// TokenVerifier validates identity-provider session tokens. Tokens are
// HS256-signed with a shared secret; issuing them is the IdP's concern.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(cfg config.Config) *TokenVerifier {
	return &TokenVerifier{secret: []byte(cfg.AuthJWTSecret)}
}

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Verify parses and validates the token, returning the embedded claims.
func (v *TokenVerifier) Verify(raw string) (domain.Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(v.secret) == 0 {
		return domain.Claims{}, domain.ErrInvalidToken
	}

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Claims{}, domain.ErrInvalidToken
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return domain.Claims{}, domain.ErrInvalidSubject
	}

	return domain.Claims{
		Subject:     subject,
		Email:       strings.ToLower(strings.TrimSpace(claims.Email)),
		DisplayName: strings.TrimSpace(claims.Name),
	}, nil
}
