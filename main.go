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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"birthdayreminder/config"
	"birthdayreminder/db"
	"birthdayreminder/handlers"
	"birthdayreminder/logger"
	"birthdayreminder/scheduler"
	"birthdayreminder/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info().
		Bool("notification_sweep", cfg.Features.NotificationSweepEnabled).
		Bool("token_sweep", cfg.Features.TokenSweepEnabled).
		Bool("reschedule_after_send", cfg.Features.RescheduleAfterSend).
		Bool("metrics", cfg.Features.MetricsEnabled).
		Msg("features")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("migrations applied")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := services.NewMetrics(registry)

	users := db.NewUserStore(conn)
	subscriptions := db.NewSubscriptionStore(conn)
	notifications := db.NewNotificationStore(conn)
	tokens := db.NewTokenStore(conn)

	mailer := services.NewMailer(cfg.Email, log)
	authService := services.NewAuthService(users, tokens, cfg.Auth, log)
	subscriptionService := services.NewSubscriptionService(conn, cfg.Schedule.MaxLeadTime, log)

	sweep := services.NewBirthdaySweep(notifications, subscriptions, users, mailer, metrics, log,
		services.WithReschedule(cfg.Features.RescheduleAfterSend))
	tokenSweep := services.NewTokenSweep(tokens, metrics, log)

	sched := scheduler.New(log, metrics.JobRunsSkipped)
	if cfg.Features.NotificationSweepEnabled {
		sched.Add(scheduler.Job{
			Name:       "notification_sweep",
			Interval:   cfg.Schedule.NotificationSweepInterval,
			RunOnStart: true,
			Run:        func(ctx context.Context) { sweep.Run(ctx) },
		})
	}
	if cfg.Features.TokenSweepEnabled {
		sched.Add(scheduler.Job{
			Name:     "token_sweep",
			Interval: cfg.Schedule.TokenSweepInterval,
			Run:      tokenSweep.Run,
		})
	}
	sched.Start(ctx)

	var metricsHandler http.Handler
	if cfg.Features.MetricsEnabled {
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	}

	h := handlers.New(authService, subscriptionService, conn, cfg.Auth, log)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(h, authService, log, metricsHandler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	sched.Stop()
	log.Info().Msg("bye")
}
