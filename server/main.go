package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cinebook/api/routes"
	"cinebook/internal/bookings"
	"cinebook/internal/cancellation"
	"cinebook/internal/catalog"
	"cinebook/internal/inventory"
	"cinebook/internal/notifications"
	"cinebook/internal/payments"
	"cinebook/internal/shared/config"
	"cinebook/internal/shared/database"
	"cinebook/internal/sweeper"
	"cinebook/pkg/logger"
	"cinebook/pkg/ratelimit"
)

func main() {
	// missing .env is fine in containers where env comes from the orchestrator
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New()
	logger.SetDefault(log)

	db, err := database.Init(cfg, log)
	if err != nil {
		log.WithError(err).Error("failed to initialize databases")
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db.Gorm); err != nil {
		log.WithError(err).Error("failed to migrate schema")
		os.Exit(1)
	}

	gate := inventory.NewRedisGate(db.Redis)
	if err := gate.PreloadScripts(context.Background()); err != nil {
		log.WithError(err).Warn("failed to preload redis scripts, will eval lazily")
	}

	var notifier bookings.Notifier
	producer, err := notifications.NewKafkaProducer(cfg.Kafka.Brokers, log)
	if err != nil {
		log.WithError(err).Warn("kafka unavailable, notifications disabled")
	} else {
		defer producer.Close()
		notifier = notifications.NewNotifier(producer, cfg.Kafka, log)
	}

	catalogRepo := catalog.NewRepository(db.Gorm)
	bookingRepo := bookings.NewRepository(db.Gorm)
	cancellationRepo := cancellation.NewRepository(db.Gorm)

	inventoryService := inventory.NewService(db.Gorm, gate, cfg.Booking.HoldTTL)
	cancellationService := cancellation.NewService(cancellationRepo)

	dispatcher := bookings.NewDispatcher(notifier, inventoryService, log)
	bookingService := bookings.NewService(
		bookingRepo,
		catalogRepo,
		inventoryService,
		catalog.NewTierPricing(),
		bookings.NewPolicyEngine(cancellationService),
		dispatcher,
		cfg.Booking,
		log,
	)

	registry := payments.NewRegistry(
		payments.NewRazorpayGateway(cfg.Gateways.Razorpay),
		payments.NewStripeGateway(cfg.Gateways.Stripe),
	)
	paymentService := payments.NewService(bookingRepo, bookingService, registry, notifier, log)
	dispatcher.SetRefundProcessor(paymentService)

	sweep := sweeper.New(bookingService, bookingRepo, cfg.Booking.SweepInterval, log)
	sweep.Start()
	defer sweep.Stop()

	limiter := ratelimit.New(db.Redis)
	router := routes.Setup(cfg, db, routes.Controllers{
		Bookings:  bookings.NewController(bookingService),
		Payments:  payments.NewController(paymentService, log),
		Inventory: inventory.NewController(inventoryService, catalogRepo),
	}, limiter, log)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info("server starting", "addr", srv.Addr, "mode", cfg.GinMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
	log.Info("server exited")
}
