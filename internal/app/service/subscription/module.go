package subscription

import "go.uber.org/fx"

// Module exposes the lifecycle service and its expiry sweep via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
	fx.Provide(NewExpiryJob),
	fx.Invoke(registerExpiryJob),
)
