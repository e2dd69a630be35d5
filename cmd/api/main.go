package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/parceltrack/logistics-backend/api/controllers"
	"github.com/parceltrack/logistics-backend/api/routes"
	"github.com/parceltrack/logistics-backend/internal/deliveries"
	"github.com/parceltrack/logistics-backend/internal/notifications"
	"github.com/parceltrack/logistics-backend/internal/push"
	"github.com/parceltrack/logistics-backend/internal/tickets"
	"github.com/parceltrack/logistics-backend/pkg/config"
	"github.com/parceltrack/logistics-backend/pkg/db"
	"github.com/parceltrack/logistics-backend/pkg/logger"
	"github.com/parceltrack/logistics-backend/pkg/metrics"
	"github.com/parceltrack/logistics-backend/pkg/migrate"
	"github.com/parceltrack/logistics-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pushMetrics := metrics.NewPushMetrics(prometheus.DefaultRegisterer)
	hub := push.NewHub(cfg.Push, logg, pushMetrics)

	sub, err := redisClient.Subscribe(ctx, cfg.Push.Channel)
	if err != nil {
		logg.Error(ctx, "failed to subscribe to push channel", err)
		os.Exit(1)
	}
	defer sub.Close()
	go hub.Run(ctx, sub.Channel())

	publisher, err := push.NewPublisher(redisClient, cfg.Push)
	if err != nil {
		logg.Error(ctx, "failed to create push publisher", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(
		notifications.NewRepository(dbClient.DB()), publisher, logg)
	if err != nil {
		logg.Error(ctx, "failed to create notifications service", err)
		os.Exit(1)
	}

	deliveriesService, err := deliveries.NewService(
		deliveries.NewRepository(dbClient.DB()), notificationsService, logg)
	if err != nil {
		logg.Error(ctx, "failed to create deliveries service", err)
		os.Exit(1)
	}

	ticketsService, err := tickets.NewService(
		tickets.NewRepository(dbClient.DB()), notificationsService, logg)
	if err != nil {
		logg.Error(ctx, "failed to create tickets service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Cfg:  cfg,
			Logg: logg,
			Pingers: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Hub:           hub,
			Notifications: notificationsService,
			Deliveries:    deliveriesService,
			Tickets:       ticketsService,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}
}
