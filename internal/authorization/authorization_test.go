package authorization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	workspacedomain "github.com/samlahq/samla/internal/workspace/domain"
	"github.com/samlahq/samla/pkg/db"
)

func setupAuthz(t *testing.T) Service {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)

	svc, err := NewService(conn, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestRolesGateActions(t *testing.T) {
	svc := setupAuthz(t)
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, 1, 100, workspacedomain.RoleOwner))
	require.NoError(t, svc.Grant(ctx, 2, 100, workspacedomain.RoleMember))

	ok, err := svc.Can(ctx, 1, 100, "agents", "write")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Can(ctx, 2, 100, "agents", "write")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Can(ctx, 2, 100, "inbox", "reply")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGrantsAreWorkspaceScoped(t *testing.T) {
	svc := setupAuthz(t)
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, 1, 100, workspacedomain.RoleOwner))

	ok, err := svc.Can(ctx, 1, 200, "agents", "write")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrantReplacesPriorRole(t *testing.T) {
	svc := setupAuthz(t)
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, 1, 100, workspacedomain.RoleOwner))
	require.NoError(t, svc.Grant(ctx, 1, 100, workspacedomain.RoleMember))

	ok, err := svc.Can(ctx, 1, 100, "agents", "write")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Revoke(ctx, 1, 100))
	ok, err = svc.Can(ctx, 1, 100, "inbox", "read")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, svc.Grant(ctx, 1, 100, "superuser"), workspacedomain.ErrInvalidRole)
}
