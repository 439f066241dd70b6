package plan

import (
	"github.com/samlahq/samla/internal/plan/repository"
	"github.com/samlahq/samla/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
