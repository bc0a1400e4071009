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

	"github.com/gorilla/mux"

	"github.com/Bahjat/phishguard/backend/internal/analyzer"
	"github.com/Bahjat/phishguard/backend/internal/pipeline"
	"github.com/Bahjat/phishguard/backend/internal/platform/config"
	"github.com/Bahjat/phishguard/backend/internal/platform/logger"
	"github.com/Bahjat/phishguard/backend/internal/platform/middleware"
	"github.com/Bahjat/phishguard/backend/internal/stats"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	engine, err := pipeline.FromConfig(cfg, log)
	if err != nil {
		log.Error("failed to build analysis engine", "error", err)
		os.Exit(1)
	}

	svc := analyzer.NewService(engine, stats.NewSession(), cfg.BatchConcurrency, log)
	transport := analyzer.NewTransport(svc, cfg.APIVersion, log)
	limiter := middleware.NewRateLimiter(cfg.MaxRequestsPerMinute)

	router := mux.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.Logging(log),
		middleware.CORS(cfg.AllowedOrigins),
		limiter.Middleware,
	)
	transport.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      6 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "api_version", cfg.APIVersion)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	}
}
