package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	beams "github.com/pushbeams/beams-device"
	"github.com/pushbeams/beams-device/internal/config"
	"github.com/pushbeams/beams-device/internal/logging"
	"github.com/pushbeams/beams-device/internal/push/local"
	"github.com/pushbeams/beams-device/internal/storage"
)

// session is the per-invocation wiring of store, subscription manager
// and client.
type session struct {
	cfg     config.CLI
	logger  *slog.Logger
	repo    *storage.Repository
	manager *local.Manager
	client  *beams.Client
}

func openStorage(ctx context.Context, cfg config.CLI, logger *slog.Logger) (*storage.Repository, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return storage.New(ctx, cfg.DBPath, logger)
}

// openManager opens only the subscription side, for commands that never
// talk to the registrar.
func openManager(ctx context.Context, cmd *cli.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.NewText(config.ParseLogLevel(cfg.LogLevel), cmd.Root().ErrWriter)
	repo, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:     cfg,
		logger:  logger,
		repo:    repo,
		manager: local.New(repo, cfg.Scope, cfg.RelayURL),
	}, nil
}

func openSession(ctx context.Context, cmd *cli.Command) (*session, error) {
	s, err := openManager(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.cfg.InstanceID) == "" {
		s.Close()
		return nil, beams.ErrInstanceIDRequired
	}

	client, err := beams.New(ctx, beams.Config{
		InstanceID: s.cfg.InstanceID,
		Store:      s.repo.DeviceStore(s.cfg.InstanceID),
		Endpoint:   s.cfg.Endpoint,
		HTTPClient: &http.Client{Timeout: s.cfg.Timeout},
		WebPush:    &beams.WebPushConfig{Manager: s.manager, Scope: s.cfg.Scope},
		UserAgent:  s.cfg.UserAgent,
		Logger:     s.logger,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	if err := client.Ready(ctx); err != nil {
		s.Close()
		return nil, err
	}
	s.client = client
	return s, nil
}

func (s *session) tokenProvider() *beams.TokenProvider {
	authURL := s.cfg.Auth.URL
	if authURL == "" && s.cfg.Endpoint != "" {
		authURL = strings.TrimSuffix(s.cfg.Endpoint, "/") + "/auth"
	}
	return beams.NewTokenProvider(beams.TokenProviderOptions{
		URL:         authURL,
		Headers:     s.cfg.Auth.Headers,
		QueryParams: s.cfg.Auth.QueryParams,
		HTTPClient:  &http.Client{Timeout: s.cfg.Timeout},
	})
}

func (s *session) Close() {
	if s.repo != nil {
		_ = s.repo.Close()
	}
}
