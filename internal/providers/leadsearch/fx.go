package leadsearch

import "go.uber.org/fx"

var Module = fx.Module("providers.leadsearch",
	fx.Provide(NewProvider),
)
