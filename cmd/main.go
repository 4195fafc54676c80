// ses-job-crawler aggregator service.
//
// Ingests crawled SES job postings over HTTP, deduplicates them against
// PostgreSQL, and periodically notifies the configured channels (email,
// LINE, Slack) about postings that match the user's filter settings.
// Publishes EVENT_JOB_DISCOVERED to Redis for each first-seen posting.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/enkou97/ses-job-crawler/internal/api"
	"github.com/enkou97/ses-job-crawler/internal/config"
	"github.com/enkou97/ses-job-crawler/internal/db"
	"github.com/enkou97/ses-job-crawler/internal/job"
	"github.com/enkou97/ses-job-crawler/internal/notify"
	"github.com/enkou97/ses-job-crawler/internal/scheduler"
	"github.com/enkou97/ses-job-crawler/internal/store"
)

const version = "1.0.0"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config error", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("postgres connected")

	// ── Redis ────────────────────────────────────────────────────────────────
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()
	log.Info("redis connected")

	// ── Stores and services ──────────────────────────────────────────────────
	jobStore := store.NewJobStore(pool)
	settingsStore := store.NewSettingsStore(pool)
	auditStore := store.NewNotificationStore(pool)

	jobSvc := job.NewService(jobStore, rdb, log)

	notifySvc := notify.NewService(settingsStore, auditStore, log,
		notify.NewEmailNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, log),
		notify.NewLineNotifier(log),
		notify.NewSlackNotifier(log),
	)

	// ── Notification scheduler ───────────────────────────────────────────────
	sched := scheduler.New(jobStore, settingsStore, notifySvc, cfg.NotifyIntervalHours, log)
	if err := sched.Start(ctx); err != nil {
		log.Error("scheduler start failed", "err", err)
		os.Exit(1)
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	api.NewJobHandler(jobSvc, log).RegisterRoutes(mux)
	api.NewNotificationHandler(notifySvc, log).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "version", version, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "err", err)
	}
	log.Info("stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "ses-job-crawler",
		"version": version,
	})
}
