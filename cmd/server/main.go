package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/shopfront-backend/config"
	"github.com/ikkim/shopfront-backend/internal/app/controller"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	"github.com/ikkim/shopfront-backend/internal/db"
	"github.com/ikkim/shopfront-backend/internal/middleware"
	"github.com/ikkim/shopfront-backend/internal/router"
	"github.com/ikkim/shopfront-backend/internal/scheduler"
	"github.com/ikkim/shopfront-backend/internal/storage"
	"github.com/ikkim/shopfront-backend/internal/websocket"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/ikkim/shopfront-backend/pkg/payment/stripe"
	shopredis "github.com/ikkim/shopfront-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Initialize(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Service:     "shopfront-backend",
		EnableColor: !cfg.IsProduction(),
	})

	logger.Info("Starting shopfront backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   cfg.Log.Level,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	conn := db.GetDB()

	// Redis backs logout revocation and webhook dedupe. Both degrade to
	// no-ops without it.
	var (
		blacklist  service.TokenBlacklist
		ledger     service.EventLedger
		revocation middleware.RevocationChecker
	)
	if cfg.Redis.Enabled {
		if err := shopredis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, continuing without token revocation", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer shopredis.Close()
			store := shopredis.NewStore(shopredis.GetClient())
			blacklist, ledger, revocation = store, store, store
		}
	}

	var images storage.ImageStorage
	var uploader controller.PresignedUploader
	if imageStorage, err := storage.New(&cfg.Storage); err != nil {
		logger.Warn("Image storage not configured", map[string]interface{}{
			"provider": cfg.Storage.Provider,
			"error":    err.Error(),
		})
	} else {
		images = imageStorage
		if s3Storage, ok := imageStorage.(*storage.S3Storage); ok {
			uploader = s3Storage
		}
	}

	var gateway service.PaymentGateway
	stripeClient, err := stripe.NewClient(stripe.NewConfig(
		cfg.Stripe.SecretKey,
		cfg.Stripe.WebhookSecret,
		cfg.Stripe.Currency,
		cfg.Stripe.FrontendURL,
	))
	if err != nil {
		logger.Warn("Stripe not configured, payment routes disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		gateway = stripeClient
	}

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	userRepo := repository.NewUserRepository(conn)
	addressRepo := repository.NewAddressRepository(conn)
	categoryRepo := repository.NewCategoryRepository(conn)
	productRepo := repository.NewProductRepository(conn)
	reviewRepo := repository.NewReviewRepository(conn)
	cartRepo := repository.NewCartRepository(conn)
	orderRepo := repository.NewOrderRepository(conn)

	authService := service.NewAuthService(
		conn,
		userRepo,
		cartRepo,
		blacklist,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	addressService := service.NewAddressService(addressRepo)
	productService := service.NewProductService(conn, productRepo, categoryRepo, images)
	reviewService := service.NewReviewService(conn, reviewRepo, productRepo)
	cartService := service.NewCartService(conn, cartRepo, productRepo)
	orderService := service.NewOrderService(conn, orderRepo, cartRepo, hub)
	paymentService := service.NewPaymentService(gateway, ledger, orderService, cartRepo, userRepo)
	maintenanceService := service.NewMaintenanceService(conn, productRepo, reviewRepo, cartRepo)

	jobs := scheduler.NewMaintenanceScheduler(maintenanceService, cfg.Scheduler)
	if err := jobs.Start(); err != nil {
		logger.Fatal("Failed to start maintenance scheduler", err)
	}
	defer jobs.Stop()

	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewAddressController(addressService),
		controller.NewProductController(productService),
		controller.NewReviewController(reviewService),
		controller.NewCartController(cartService),
		controller.NewOrderController(orderService),
		controller.NewPaymentController(paymentService),
		controller.NewUploadController(uploader),
		controller.NewOrderStreamController(hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(cfg.JWT.Secret, revocation, userRepo),
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server stopped")
}
