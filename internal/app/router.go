package app

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ridepay/internal/handler"
	"ridepay/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
// IdempotencyStore guards checkout and may be nil. An empty AllowedOrigins
// allows any browser origin.
type RouterDeps struct {
	PaymentHandler    *handler.PaymentHandler
	RideHandler       *handler.RideHandler
	UserHandler       *handler.UserHandler
	SettlementHandler *handler.SettlementHandler
	IdempotencyStore  middleware.ResponseStore
	AllowedOrigins    []string
	Logger            *slog.Logger
	NewRelicApp       *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Payment routes. The webhook must see the raw body, so nothing
		// in front of it may consume or rewrite the request.
		payments := v1.Group("/payments")
		{
			payments.POST("/webhook", deps.PaymentHandler.Webhook)

			checkout := []gin.HandlerFunc{deps.PaymentHandler.Checkout}
			if deps.IdempotencyStore != nil {
				checkout = append([]gin.HandlerFunc{middleware.IdempotencyMiddleware(deps.IdempotencyStore, logger)}, checkout...)
			}
			payments.POST("/checkout", checkout...)
		}

		// User routes.
		users := v1.Group("/users")
		{
			users.POST("", deps.UserHandler.Register)
			users.GET("/:id", deps.UserHandler.GetUser)
			users.GET("/:id/past-rides", deps.SettlementHandler.ListPastRides)
		}

		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.OfferRide)
			rides.GET("/:id/availability", deps.RideHandler.GetAvailability)
		}

		v1.GET("/riders/:id/pending-payments", deps.SettlementHandler.ListPendingPayments)
		v1.GET("/riders/:id/bookings", deps.SettlementHandler.ListBookings)
		v1.GET("/transactions/:intentId", deps.SettlementHandler.GetTransaction)

		// Operator routes for the dead-letter list.
		settlements := v1.Group("/settlements")
		{
			settlements.GET("/failures", deps.SettlementHandler.ListFailures)
			settlements.POST("/failures/:intentId/resolve", deps.SettlementHandler.ResolveFailure)
		}
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Idempotency-Key"}
	config.ExposeHeaders = []string{"Location", "X-Pending-Key", "Idempotent-Replayed"}
	return config
}
