// Command mockapi serves an in-memory spare-parts backend for local
// development of the client.
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

	"spareparts/internal/config"
	v1 "spareparts/internal/infrastructure/http/v1"
	"spareparts/internal/infrastructure/mockapi"
	"spareparts/pkg/logger"
)

func main() {
	cfg, err := config.LoadMockAPI()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	backend := mockapi.New(mockapi.Options{ResultsStyle: cfg.ResultsStyle})
	if cfg.Seed {
		if err := backend.Seed(); err != nil {
			log.Fatalw("failed to seed backend", "error", err)
		}
		log.Infow("demo data loaded",
			"users", []string{mockapi.SeedAdmin, mockapi.SeedOperator, mockapi.SeedViewer},
			"password", "<username>123",
		)
	}

	jwtConfig := mockapi.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.AccessTokenTTL = cfg.TokenTTL

	server := &http.Server{
		Addr: cfg.Addr,
		Handler: v1.NewHandler(v1.RouterConfig{
			Backend: backend,
			JWT:     mockapi.NewJWTService(jwtConfig),
			Logger:  log,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.Addr, "results_style", cfg.ResultsStyle)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
