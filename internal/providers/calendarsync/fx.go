package calendarsync

import "go.uber.org/fx"

var Module = fx.Module("providers.calendarsync",
	fx.Provide(NewProvider),
)
