// Package app wires the post-creation service together and owns its
// lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/bluniversal/comments/internal/discussd/http"
	"github.com/bluniversal/comments/internal/discussd/service"
	"github.com/bluniversal/comments/pkg/bsky"
	"github.com/bluniversal/comments/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the post-creation service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	client      *bsky.Client
	postService *service.PostService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "discussd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	app.client = bsky.NewClient(cfg.PDSURL, cfg.AppViewURL)
	app.initServices()
	app.initHTTP()

	return app, nil
}

func validate(cfg Config) error {
	switch service.Mode(cfg.Mode) {
	case service.ModeHMAC:
		if cfg.SharedSecret == "" {
			return fmt.Errorf("DISCUSSD_SHARED_SECRET is required in hmac mode")
		}
		if cfg.BotIdentifier == "" || cfg.BotPassword == "" {
			return fmt.Errorf("DISCUSSD_BOT_IDENTIFIER and DISCUSSD_BOT_PASSWORD are required in hmac mode")
		}
	case service.ModeSession:
	default:
		return fmt.Errorf("unknown DISCUSSD_MODE %q", cfg.Mode)
	}
	return nil
}

// Handler exposes the HTTP handler for serverless adapters that bypass
// ListenAndServe.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Logger exposes the application logger.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("discussd starting",
		"port", app.cfg.Port,
		"mode", app.cfg.Mode,
		"version", BuildVersion,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down discussd...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.logger.Info("discussd stopped")
	return nil
}

func (app *Application) initServices() {
	app.postService = &service.PostService{
		Client:        app.client,
		Mode:          service.Mode(app.cfg.Mode),
		SharedSecret:  app.cfg.SharedSecret,
		ProofWindow:   app.cfg.ProofWindow,
		BotIdentifier: app.cfg.BotIdentifier,
		BotPassword:   app.cfg.BotPassword,
		Logger:        app.logger,
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.logger)
	router.PostService = app.postService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
