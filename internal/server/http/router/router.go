package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	pkgAuth "github.com/quickserve/dispatch/internal/pkg/auth"
	"github.com/quickserve/dispatch/internal/server/http/handlers"
	"github.com/quickserve/dispatch/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.DispatchFacade, feed handlers.ConsoleFeed, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	sessionHandler := handlers.NewSessionHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	trackingHandler := handlers.NewTrackingHandler(facade)
	paymentHandler := handlers.NewPaymentHandler(facade)

	api := engine.Group("/api")

	session := api.Group("/session")
	session.POST("/login", sessionHandler.Login)
	session.POST("/logout", middleware.AuthRequired(facade, pkgAuth.RoleRider), sessionHandler.Logout)

	// Checkout terminals and the payment-signal forwarder are on the store
	// LAN; these two endpoints stay open like the customer-facing verify.
	api.POST("/orders", orderHandler.Create)
	api.POST("/payments/verify", paymentHandler.Verify)
	api.POST("/payments/signals", paymentHandler.RecordSignal)

	anyActor := api.Group("")
	anyActor.Use(middleware.AuthRequired(facade, pkgAuth.RoleRider, pkgAuth.RoleDispatcher))
	anyActor.GET("/orders/active", orderHandler.Active)
	anyActor.POST("/orders/:id/status", orderHandler.Transition)

	rider := api.Group("")
	rider.Use(middleware.AuthRequired(facade, pkgAuth.RoleRider))
	rider.POST("/orders/:id/location", trackingHandler.Push)

	dispatcher := api.Group("")
	dispatcher.Use(middleware.AuthRequired(facade, pkgAuth.RoleDispatcher))
	dispatcher.GET("/orders/:id/location", trackingHandler.Last)
	dispatcher.GET("/payments/signals", paymentHandler.Signals)
	dispatcher.POST("/orders/:id/confirm-payment", paymentHandler.Confirm)

	wsGroup := engine.Group("/ws")
	wsGroup.Use(middleware.AuthRequired(facade, pkgAuth.RoleDispatcher))
	wsGroup.GET("/dispatch", func(c *gin.Context) {
		feed.ServeWS(c.Writer, c.Request, handlers.CurrentActorID(c))
	})

	return engine
}
