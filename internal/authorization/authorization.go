// Package authorization enforces workspace-scoped RBAC with casbin.
// Users carry a role per workspace; the workspace id is the casbin
// domain, so grants in one workspace never leak into another.
package authorization

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	workspacedomain "github.com/samlahq/samla/internal/workspace/domain"
)

const rbacModel = `
[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub, r.dom) && (p.dom == "*" || p.dom == r.dom) && (p.obj == "*" || p.obj == r.obj) && (p.act == "*" || p.act == r.act)
`

// role policies apply in every workspace; membership rows bind a user
// to a role inside one workspace only.
var rolePolicies = [][]string{
	{"role:owner", "*", "*", "*"},

	{"role:admin", "*", "workspace", "read"},
	{"role:admin", "*", "members", "read"},
	{"role:admin", "*", "inbox", "*"},
	{"role:admin", "*", "agents", "*"},
	{"role:admin", "*", "leads", "*"},
	{"role:admin", "*", "appointments", "*"},
	{"role:admin", "*", "triggers", "*"},
	{"role:admin", "*", "usage", "read"},

	{"role:member", "*", "workspace", "read"},
	{"role:member", "*", "inbox", "read"},
	{"role:member", "*", "inbox", "reply"},
	{"role:member", "*", "leads", "read"},
	{"role:member", "*", "appointments", "read"},
}

// Service answers "may this user act on this workspace resource".
type Service interface {
	Grant(ctx context.Context, userID, workspaceID snowflake.ID, role string) error
	Revoke(ctx context.Context, userID, workspaceID snowflake.ID) error
	Can(ctx context.Context, userID, workspaceID snowflake.ID, object, action string) (bool, error)
}

type service struct {
	enforcer *casbin.SyncedEnforcer
	log      *zap.Logger
}

func NewService(conn *gorm.DB, log *zap.Logger) (Service, error) {
	adapter, err := gormadapter.NewAdapterByDBUseTableName(conn, "", "casbin_rules")
	if err != nil {
		return nil, fmt.Errorf("casbin adapter: %w", err)
	}

	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}

	for _, p := range rolePolicies {
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2], p[3]); err != nil {
			return nil, fmt.Errorf("casbin seed policy: %w", err)
		}
	}

	return &service{
		enforcer: enforcer,
		log:      log.Named("authorization"),
	}, nil
}

func roleSubject(role string) string { return "role:" + role }

func (s *service) Grant(ctx context.Context, userID, workspaceID snowflake.ID, role string) error {
	switch role {
	case workspacedomain.RoleOwner, workspacedomain.RoleAdmin, workspacedomain.RoleMember:
	default:
		return workspacedomain.ErrInvalidRole
	}

	// A user holds exactly one role per workspace.
	if err := s.Revoke(ctx, userID, workspaceID); err != nil {
		return err
	}

	_, err := s.enforcer.AddGroupingPolicy(userID.String(), roleSubject(role), workspaceID.String())
	return err
}

func (s *service) Revoke(ctx context.Context, userID, workspaceID snowflake.ID) error {
	_, err := s.enforcer.RemoveFilteredGroupingPolicy(0, userID.String(), "", workspaceID.String())
	return err
}

func (s *service) Can(ctx context.Context, userID, workspaceID snowflake.ID, object, action string) (bool, error) {
	return s.enforcer.Enforce(userID.String(), workspaceID.String(), object, action)
}

var Module = fx.Module("authorization",
	fx.Provide(NewService),
)
