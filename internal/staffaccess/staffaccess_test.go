package staffaccess

import (
	"testing"

	"github.com/samlahq/samla/internal/config"
	identitydomain "github.com/samlahq/samla/internal/identity/domain"
	"github.com/stretchr/testify/assert"
)

func newTestGuard() *Guard {
	return NewGuard(config.Config{StaffDomains: []string{"samla.app", "samla.dev"}})
}

func TestRequireDeniesUnauthenticated(t *testing.T) {
	guard := newTestGuard()

	decision := guard.Require(nil)
	assert.False(t, decision.Authorized)
	assert.Equal(t, "unauthenticated", decision.Reason)
}

func TestRequireAllowsAllowListedDomain(t *testing.T) {
	guard := newTestGuard()

	decision := guard.Require(&identitydomain.User{Email: "ops@samla.app"})
	assert.True(t, decision.Authorized)
}

func TestRequireAllowsStaffFlagRegardlessOfDomain(t *testing.T) {
	guard := newTestGuard()

	decision := guard.Require(&identitydomain.User{Email: "contractor@example.com", IsStaff: true})
	assert.True(t, decision.Authorized)
}

func TestRequireDeniesRegularUser(t *testing.T) {
	guard := newTestGuard()

	decision := guard.Require(&identitydomain.User{Email: "owner@acmedental.com"})
	assert.False(t, decision.Authorized)
	assert.NotEmpty(t, decision.Reason)
}

func TestRequireGatesAreIndependent(t *testing.T) {
	guard := newTestGuard()

	// Allow-listed domain but no flag.
	assert.True(t, guard.Require(&identitydomain.User{Email: "a@samla.dev"}).Authorized)
	// Flag but foreign domain.
	assert.True(t, guard.Require(&identitydomain.User{Email: "b@gmail.com", IsStaff: true}).Authorized)
	// Neither.
	assert.False(t, guard.Require(&identitydomain.User{Email: "c@gmail.com"}).Authorized)
}

func TestRequireHandlesMalformedEmail(t *testing.T) {
	guard := newTestGuard()

	assert.False(t, guard.Require(&identitydomain.User{Email: "not-an-email"}).Authorized)
	assert.False(t, guard.Require(&identitydomain.User{Email: "@samla.app"}).Authorized)
	assert.False(t, guard.Require(&identitydomain.User{Email: ""}).Authorized)
}
