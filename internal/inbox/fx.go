package inbox

import (
	"github.com/samlahq/samla/internal/inbox/service"
	"go.uber.org/fx"
)

var Module = fx.Module("inbox.service",
	fx.Provide(service.NewService),
)
