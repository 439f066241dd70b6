package identity

import (
	"github.com/samlahq/samla/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(NewTokenVerifier),
	fx.Provide(service.NewService),
)
