package messaging

import "go.uber.org/fx"

var Module = fx.Module("providers.messaging",
	fx.Provide(NewProvider),
)
