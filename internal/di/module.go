package di

import (
	"go.uber.org/fx"

	"github.com/quickserve/dispatch/internal/app"
	"github.com/quickserve/dispatch/internal/config"
	"github.com/quickserve/dispatch/internal/geo"
	"github.com/quickserve/dispatch/internal/logger"
	"github.com/quickserve/dispatch/internal/pkg/auth"
	"github.com/quickserve/dispatch/internal/server/http/handlers"
	"github.com/quickserve/dispatch/internal/server/http/router"
	"github.com/quickserve/dispatch/internal/server/ws"
	"github.com/quickserve/dispatch/internal/storage/postgres"
	"github.com/quickserve/dispatch/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		geo.Module,
		ws.Module,
		usecase.Module,
		fx.Provide(
			func(f *app.DispatchFacade) handlers.DispatchFacade { return f },
			func(h *ws.DispatchHub) handlers.ConsoleFeed { return h },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
