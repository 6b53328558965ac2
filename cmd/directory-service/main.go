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

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/commerce-directory/internal/cache"
	"github.com/suteetoe/commerce-directory/internal/directory"
	"github.com/suteetoe/commerce-directory/internal/handler"
	"github.com/suteetoe/commerce-directory/internal/imagestore"
	"github.com/suteetoe/commerce-directory/internal/scheduler"
	"github.com/suteetoe/commerce-directory/internal/store"
	"github.com/suteetoe/commerce-directory/internal/subscription"
	"github.com/suteetoe/commerce-directory/pkg/config"
	"github.com/suteetoe/commerce-directory/pkg/jwtutil"
	"github.com/suteetoe/commerce-directory/pkg/logger"
	"github.com/suteetoe/commerce-directory/pkg/metrics"
	"github.com/suteetoe/commerce-directory/pkg/middleware"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	conf, err := config.Load("directory")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	defer func() { _ = log.Sync() }()
	log.Info("Configuration loaded", conf.LogConfig()...)

	// Store: postgres (migrated) or in-memory
	st, err := store.New(conf, log)
	if err != nil {
		log.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer st.Close()

	// Optional ville name cache
	var villes cache.VilleCache = cache.Noop{}
	if conf.Redis.Enabled() {
		redisCache, err := cache.NewRedisVilleCache(ctx, &conf.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisCache.Close()
		villes = redisCache
	}

	// Optional commerce image storage
	var images imagestore.Store = imagestore.Disabled{}
	if conf.MinIO.Enabled() {
		images, err = imagestore.NewMinIOStore(ctx, &conf.MinIO, log)
		if err != nil {
			log.Fatal("Failed to initialize image storage", zap.Error(err))
		}
	}

	dir := directory.NewService(st, villes, log)
	payments := subscription.NewPaymentService(st, log)

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      conf.JWT.SigningKey,
		ExpirationHours: conf.JWT.ExpirationHours,
	})

	httpMetrics := metrics.NewHTTPMetrics(conf.Metrics.Prefix, nil)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewCustomValidator()

	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(httpMetrics.Middleware())

	h := handler.New(conf.ServiceName, dir, payments, st, jwt, images)
	handler.RegisterRoutes(e, h, jwt)
	// closing the broadcast cells ends open event streams
	e.Server.RegisterOnShutdown(dir.Close)

	// Background expiry sweep
	sweeper, err := scheduler.Start(conf.Scheduler.ExpirySweep, scheduler.NewExpirySweep(st, log))
	if err != nil {
		log.Fatal("Failed to schedule expiry sweep", zap.String("schedule", conf.Scheduler.ExpirySweep), zap.Error(err))
	}
	defer func() { <-sweeper.Stop().Done() }()

	go func() {
		log.Info("Starting directory-service on port " + conf.Server.Port)
		if err := e.Start(":" + conf.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server stopped unexpectedly", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down directory-service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
