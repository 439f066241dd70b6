package voice

import "go.uber.org/fx"

var Module = fx.Module("providers.voice",
	fx.Provide(NewProvider),
)
