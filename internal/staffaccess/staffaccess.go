// Package staffaccess decides whether a caller may reach platform-staff
// admin surfaces. The decision is computed per request and never cached:
// staff status can be revoked at any time.
package staffaccess

import (
	"strings"

	"github.com/samlahq/samla/internal/config"
	identitydomain "github.com/samlahq/samla/internal/identity/domain"
	"go.uber.org/fx"
)

// Decision is the outcome of a staff access check.
type Decision struct {
	Authorized bool   `json:"authorized"`
	Reason     string `json:"reason,omitempty"`
}

// Guard evaluates staff access for users.
type Guard struct {
	domains map[string]struct{}
}

func NewGuard(cfg config.Config) *Guard {
	domains := make(map[string]struct{}, len(cfg.StaffDomains))
	for _, d := range cfg.StaffDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domains[d] = struct{}{}
		}
	}
	return &Guard{domains: domains}
}

// Require authorizes when the user's email domain is allow-listed OR the
// account carries the out-of-band staff flag. Either gate is sufficient.
func (g *Guard) Require(user *identitydomain.User) Decision {
	if user == nil {
		return Decision{Authorized: false, Reason: "unauthenticated"}
	}

	if user.IsStaff {
		return Decision{Authorized: true}
	}

	if domain, ok := emailDomain(user.Email); ok {
		if _, allowed := g.domains[domain]; allowed {
			return Decision{Authorized: true}
		}
	}

	return Decision{Authorized: false, Reason: "not platform staff"}
}

func emailDomain(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", false
	}
	return email[at+1:], true
}

var Module = fx.Module("staffaccess",
	fx.Provide(NewGuard),
)
