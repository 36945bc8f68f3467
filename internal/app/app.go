// Package app encapsulates server assembly and lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"streamflow/internal/retention"
	"streamflow/pkg/config"
	"streamflow/pkg/logger"
	"streamflow/pkg/realtime"
	"streamflow/pkg/service"
	"streamflow/pkg/store"
	"streamflow/pkg/validation"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	hub       *realtime.Hub
	submitter *service.Submitter
	srv       *http.Server
}

// New initializes resources that do not require a running context (store,
// validation rules, runtime keys, hub). Call Run to start the HTTP server
// and block until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	// runtime keys: backend keys double as signing secrets, plus any
	// dedicated signing keys
	runtimeCfg := &config.RuntimeConfig{BackendKeys: map[string]struct{}{}, SigningKeys: map[string]struct{}{}}
	for _, k := range eff.Config.Security.APIKeys.Backend {
		runtimeCfg.BackendKeys[k] = struct{}{}
		runtimeCfg.SigningKeys[k] = struct{}{}
	}
	for _, k := range eff.Config.Security.SigningKeys {
		runtimeCfg.SigningKeys[k] = struct{}{}
	}
	config.SetRuntime(runtimeCfg)

	validation.SetRules(validation.Rules{MaxContentLen: eff.Config.Limits.MaxContentLen})

	if err := store.Open(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}

	hub := realtime.NewHub(eff.Config.Limits.ChannelBuffer)
	submitter := service.NewSubmitter(hub, service.Limits{
		MinPaidChatCents: eff.Config.Limits.MinPaidChatCents,
		SubmitTimeout:    eff.Config.Limits.SubmitTimeout.Duration(),
	})

	return &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		hub:       hub,
		submitter: submitter,
	}, nil
}

// Run starts the retention scheduler and the HTTP server, and blocks until
// ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	stopRetention, err := retention.Start(ctx, a.eff)
	if err != nil {
		return err
	}
	defer stopRetention()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// shutdown drains the HTTP server and closes the store.
func (a *App) shutdown() error {
	logger.Info("server_shutting_down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.srv != nil {
		if err := a.srv.Shutdown(sctx); err != nil {
			logger.Warn("http_shutdown_error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Warn("store_close_error", "error", err)
		return err
	}
	logger.Info("server_stopped")
	return nil
}
