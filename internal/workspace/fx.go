package workspace

import (
	"github.com/samlahq/samla/internal/workspace/repository"
	"github.com/samlahq/samla/internal/workspace/service"
	"go.uber.org/fx"
)

var Module = fx.Module("workspace.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
