package billingreport

import (
	"github.com/samlahq/samla/internal/billingreport/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billingreport.service",
	fx.Provide(service.NewService),
)
