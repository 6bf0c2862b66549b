package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/booking-page/api/swagger"
	"github.com/noah-isme/booking-page/internal/handler"
	internalmiddleware "github.com/noah-isme/booking-page/internal/middleware"
	"github.com/noah-isme/booking-page/internal/service"
	"github.com/noah-isme/booking-page/internal/validation"
	"github.com/noah-isme/booking-page/pkg/config"
	"github.com/noah-isme/booking-page/pkg/logger"
	corsmiddleware "github.com/noah-isme/booking-page/pkg/middleware/cors"
	"github.com/noah-isme/booking-page/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/booking-page/pkg/middleware/requestid"
)

// @title Booking Page API
// @version 1.0.0
// @description Hosts booking pages: field validation, slot availability and form submission
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	if err := validation.RegisterTags(validate); err != nil {
		logr.Fatal("register validation tags", zap.Error(err))
	}
	rules := validation.Rules{
		LeadDays:  cfg.Booking.LeadDays,
		OpenHour:  cfg.Booking.OpenHour,
		CloseHour: cfg.Booking.CloseHour,
		Location:  cfg.Booking.Location(),
	}
	bookingValidator, err := validation.New(rules, validate)
	if err != nil {
		logr.Fatal("build validator", zap.Error(err))
	}
	factory, err := service.NewPageFactory(cfg.Booking, rules)
	if err != nil {
		logr.Fatal("build page factory", zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()
	clock := service.RealClock{}

	availability := service.NewAvailabilityService(cfg.Backend, metricsSvc, logr)
	availability.Start(ctx)
	defer availability.Stop()

	registry := service.NewPageRegistry(factory, service.PageDeps{
		Gatekeeper: service.NewFormGatekeeper(bookingValidator, metricsSvc, logr),
		Presenter:  service.NewSlotPresenter(),
		Notifier:   service.NewPageNotifier(cfg.Pages.NotificationDuration, clock),
		Fetcher:    availability,
		Submitter:  service.NewSubmissionService(cfg.Backend, nil, logr),
		Clock:      clock,
		Metrics:    metricsSvc,
		Logger:     logr,
	}, cfg.Pages.IdleTTL)
	go registry.Run(ctx, cfg.Pages.IdleTTL/4)

	var limiter *ratelimit.Store
	if cfg.RateLimit.RPS > 0 {
		limiter = ratelimit.NewStore(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 10*time.Minute)
		go sweepLimiter(ctx, limiter)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, availability)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(ratelimit.Middleware(limiter, logr))
	api.GET("/stats", metricsHandler.Stats)
	handler.NewPageHandler(registry, validate).Register(api)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
	logr.Info("server stopped")
}

func sweepLimiter(ctx context.Context, store *ratelimit.Store) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Sweep()
		}
	}
}
