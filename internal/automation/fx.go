package automation

import (
	"github.com/samlahq/samla/internal/automation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("automation.service",
	fx.Provide(service.NewService),
)
