package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/samlahq/samla/internal/workspace/domain"
	"github.com/samlahq/samla/internal/workspace/repository"
	"github.com/samlahq/samla/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupWorkspaceDB(t *testing.T) (*gorm.DB, domain.Service, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Workspace{}, &domain.WorkspaceMember{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(conn, zap.NewNop(), repository.NewRepository(conn), node)
	return conn, svc, node
}

func TestCreateWorkspace(t *testing.T) {
	_, svc, node := setupWorkspaceDB(t)
	ctx := context.Background()
	userID := node.Generate()

	resp, err := svc.Create(ctx, userID, domain.CreateWorkspaceRequest{
		Name:        "Acme Dental",
		CountryCode: "mx",
	})
	require.NoError(t, err)
	assert.Equal(t, "acme-dental", resp.Slug)
	assert.Equal(t, "MX", resp.CountryCode)

	wsID, err := snowflake.ParseString(resp.ID)
	require.NoError(t, err)

	role, err := svc.MemberRole(ctx, wsID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, role)

	seats, err := svc.CountSeats(ctx, wsID)
	require.NoError(t, err)
	assert.Equal(t, 1, seats)
}

func TestCreateWorkspaceRejectsReservedNames(t *testing.T) {
	_, svc, node := setupWorkspaceDB(t)
	ctx := context.Background()
	userID := node.Generate()

	for _, name := range []string{"samla", "SAMLA Support", "Admin"} {
		_, err := svc.Create(ctx, userID, domain.CreateWorkspaceRequest{
			Name:        name,
			CountryCode: "MX",
		})
		assert.ErrorIs(t, err, domain.ErrReservedName, "name %q", name)
	}
}

func TestCreateWorkspaceRejectsDuplicateSlug(t *testing.T) {
	_, svc, node := setupWorkspaceDB(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, node.Generate(), domain.CreateWorkspaceRequest{Name: "Acme Dental", CountryCode: "MX"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, node.Generate(), domain.CreateWorkspaceRequest{Name: "Acme Dental", CountryCode: "US"})
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestCreateWorkspaceValidation(t *testing.T) {
	_, svc, node := setupWorkspaceDB(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 0, domain.CreateWorkspaceRequest{Name: "Acme", CountryCode: "MX"})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = svc.Create(ctx, node.Generate(), domain.CreateWorkspaceRequest{Name: " ", CountryCode: "MX"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, node.Generate(), domain.CreateWorkspaceRequest{Name: "Acme", CountryCode: "MEX"})
	assert.ErrorIs(t, err, domain.ErrInvalidCountry)
}

func TestMemberRoleNotMember(t *testing.T) {
	_, svc, node := setupWorkspaceDB(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, node.Generate(), domain.CreateWorkspaceRequest{Name: "Acme Dental", CountryCode: "MX"})
	require.NoError(t, err)
	wsID, _ := snowflake.ParseString(resp.ID)

	_, err = svc.MemberRole(ctx, wsID, node.Generate())
	assert.ErrorIs(t, err, domain.ErrNotMember)
}
