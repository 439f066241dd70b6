package leads

import (
	"github.com/samlahq/samla/internal/leads/service"
	"go.uber.org/fx"
)

var Module = fx.Module("leads.service",
	fx.Provide(service.NewService),
)
