package billing

import "go.uber.org/fx"

var Module = fx.Module("providers.billing",
	fx.Provide(NewProvider),
)
