package ws

import (
	"context"

	"go.uber.org/fx"
)

// Module wires the dispatcher websocket hub.
var Module = fx.Options(
	fx.Provide(NewDispatchHub),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, hub *DispatchHub) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			hub.Close()
			return nil
		},
	})
}
