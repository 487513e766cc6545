package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pushbeams/beams-device/internal/config"
	httpapi "github.com/pushbeams/beams-device/internal/http"
	"github.com/pushbeams/beams-device/internal/http/handlers"
	"github.com/pushbeams/beams-device/internal/logging"
	"github.com/pushbeams/beams-device/internal/services/registry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	var tokenSecret []byte
	if cfg.TokenSecret != "" {
		tokenSecret = []byte(cfg.TokenSecret)
	}
	reg, err := registry.New(cfg.InstanceID, tokenSecret, logger)
	if err != nil {
		logger.Error("failed to initialize registry", "err", err)
		os.Exit(1)
	}
	if cfg.SecretKey == "" {
		logger.Warn("BEAMS_SECRET_KEY is empty; publish API is unauthenticated")
	}

	relay := handlers.NewRelay(logger)
	api := handlers.New(reg, relay, cfg.SecretKey, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(api, relay),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("registrar starting", "addr", httpServer.Addr, "instance_id", reg.InstanceID())
	if err := httpapi.RunServer(ctx, httpServer, cfg.ShutdownTimeout, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated with error", "err", err)
		os.Exit(1)
	}
	logger.Info("registrar stopped")
}
