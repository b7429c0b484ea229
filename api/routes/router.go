package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"cinebook/internal/bookings"
	"cinebook/internal/inventory"
	"cinebook/internal/payments"
	"cinebook/internal/shared/config"
	"cinebook/internal/shared/database"
	"cinebook/internal/shared/middleware"
	"cinebook/internal/shared/utils/response"
	"cinebook/pkg/logger"
	"cinebook/pkg/ratelimit"
)

// Controllers bundles the HTTP controllers wired in main
type Controllers struct {
	Bookings  *bookings.Controller
	Payments  *payments.Controller
	Inventory *inventory.Controller
}

// Setup builds the HTTP router with middleware, health checks and all
// API routes.
func Setup(cfg *config.Config, db *database.DB, ctrl Controllers, limiter *ratelimit.Limiter, log *logger.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := db.HealthCheck(ctx); err != nil {
			response.RespondJSON(c, "error", http.StatusServiceUnavailable, "Unhealthy", nil, err.Error())
			return
		}
		response.RespondJSON(c, "success", http.StatusOK, "Healthy", gin.H{"time": time.Now().UTC()}, nil)
	})

	api := router.Group(cfg.GetAPIBasePath())

	public := api.Group("")
	public.Use(middleware.RateLimit(limiter, cfg.RateLimit, "public", cfg.RateLimit.PublicRequests, log))
	inventory.RegisterRoutes(public, ctrl.Inventory)

	webhooks := api.Group("")
	webhooks.Use(middleware.RateLimit(limiter, cfg.RateLimit, "webhook", cfg.RateLimit.WebhookRequests, log))
	payments.RegisterWebhookRoutes(webhooks, ctrl.Payments)

	authed := api.Group("")
	authed.Use(middleware.Auth(cfg.JWT.Secret))

	bookingRoutes := authed.Group("")
	bookingRoutes.Use(middleware.RateLimit(limiter, cfg.RateLimit, "booking", cfg.RateLimit.BookingRequests, log))
	bookings.RegisterRoutes(bookingRoutes, ctrl.Bookings)

	paymentRoutes := authed.Group("")
	paymentRoutes.Use(middleware.RateLimit(limiter, cfg.RateLimit, "payment", cfg.RateLimit.PaymentRequests, log))
	payments.RegisterRoutes(paymentRoutes, ctrl.Payments)

	return router
}
