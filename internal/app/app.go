package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/quickserve/dispatch/internal/config"
	"github.com/quickserve/dispatch/internal/geo"
	"github.com/quickserve/dispatch/internal/server/ws"
	"github.com/quickserve/dispatch/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewDispatchFacade,
		newHTTPServer,
		newRetentionSweeper,
		func(l *geo.RiderLocator) LiveLocator { return l },
		func(h *ws.DispatchHub) EventBroadcaster { return h },
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type sweeperParams struct {
	fx.In

	Facade *DispatchFacade
	Config *config.Config
	Logger *slog.Logger
}

func newRetentionSweeper(p sweeperParams) *worker.RetentionSweeper {
	return worker.NewRetentionSweeper(p.Facade, p.Config.SweepInterval, p.Logger)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Sweeper    *worker.RetentionSweeper
	Facade     *DispatchFacade
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting dispatchd", slog.String("addr", p.Server.Addr))
			if token, err := p.Facade.IssueDispatcherToken(1); err == nil {
				// Operators hand this to the console out of band.
				p.Logger.Info("dispatcher console token issued", slog.String("token", token))
			}
			p.Sweeper.Start(ctx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Sweeper.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("dispatchd stopped")
			return nil
		},
	})
}
