package calendar

import (
	"github.com/samlahq/samla/internal/calendar/service"
	"go.uber.org/fx"
)

var Module = fx.Module("calendar.service",
	fx.Provide(service.NewService),
)
