package agent

import (
	"github.com/samlahq/samla/internal/agent/service"
	"go.uber.org/fx"
)

var Module = fx.Module("agent.service",
	fx.Provide(service.NewService),
)
