// Package app wires the client-side components together: storage, the
// Bluesky client, session management and post resolution.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bluniversal/comments/internal/comments/domain"
	"github.com/bluniversal/comments/internal/comments/service"
	"github.com/bluniversal/comments/internal/comments/store"
	"github.com/bluniversal/comments/internal/comments/store/drivers/sqlite"
	"github.com/bluniversal/comments/pkg/bsky"
	"github.com/bluniversal/comments/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// App encapsulates the client application with all its dependencies.
type App struct {
	cfg    Config
	Logger *slog.Logger

	Store  store.Store
	Client *bsky.Client

	Manager  *service.Manager
	Resolver *service.Resolver
	Threads  *service.ThreadService
}

// New creates a new App instance with all dependencies initialized.
func New(cfg Config) (*App, error) {
	a := &App{
		cfg: cfg,
		Logger: slogx.New(slogx.Config{
			Service: "comments",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := a.initStore(); err != nil {
		return nil, err
	}

	a.Client = bsky.NewClient(cfg.PDSURL, cfg.AppViewURL)
	a.Manager = &service.Manager{
		Client: a.Client,
		Store:  a.Store,
		Logger: a.Logger,
	}
	a.Threads = &service.ThreadService{
		Manager: a.Manager,
		Depth:   cfg.ThreadDepth,
	}

	creator, err := a.buildCreator()
	if err != nil {
		_ = a.Store.Close()
		return nil, err
	}
	a.Resolver = &service.Resolver{
		Client:    a.Client,
		Store:     a.Store,
		Creator:   creator,
		BotAuthor: cfg.BotAuthor,
		Logger:    a.Logger,
	}

	return a, nil
}

// Close releases the underlying storage.
func (a *App) Close() error {
	return a.Store.Close()
}

// ShowFollowNudge reports whether the follow-the-bot notice should still be
// shown. The first call records the install time.
func (a *App) ShowFollowNudge(ctx context.Context) bool {
	meta := a.Store.Meta()

	if _, err := meta.Get(ctx, domain.MetaKeyPromoDismissed); err == nil {
		return false
	}

	if _, err := meta.Get(ctx, domain.MetaKeyInstalledAt); err != nil {
		installedAt := strconv.FormatInt(time.Now().Unix(), 10)
		if err := meta.Set(ctx, domain.MetaKeyInstalledAt, installedAt); err != nil {
			a.Logger.Warn("record install time failed", "err", err)
		}
	}
	return true
}

// DismissFollowNudge hides the follow-the-bot notice permanently.
func (a *App) DismissFollowNudge(ctx context.Context) error {
	return a.Store.Meta().Set(ctx, domain.MetaKeyPromoDismissed, "1")
}

func (a *App) initStore() error {
	if dir := filepath.Dir(a.cfg.DatabaseFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", a.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("open state db: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("apply migrations: %w", err)
	}

	a.Store = db
	return nil
}

func (a *App) buildCreator() (service.Creator, error) {
	switch a.cfg.CreateMode {
	case CreateModeDirect:
		return &service.DirectCreator{Manager: a.Manager}, nil

	case CreateModeEndpointHMAC:
		if a.cfg.EndpointURL == "" || a.cfg.SharedSecret == "" {
			return nil, fmt.Errorf("BLUNIVERSAL_ENDPOINT_URL and BLUNIVERSAL_SHARED_SECRET are required in endpoint-hmac mode")
		}
		return &service.RemoteHMACCreator{
			EndpointURL:  a.cfg.EndpointURL,
			SharedSecret: a.cfg.SharedSecret,
		}, nil

	case CreateModeEndpointSession:
		if a.cfg.EndpointURL == "" {
			return nil, fmt.Errorf("BLUNIVERSAL_ENDPOINT_URL is required in endpoint-session mode")
		}
		return &service.RemoteSessionCreator{
			EndpointURL: a.cfg.EndpointURL,
			Manager:     a.Manager,
		}, nil

	default:
		return nil, fmt.Errorf("unknown BLUNIVERSAL_CREATE_MODE %q", a.cfg.CreateMode)
	}
}
