package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/invoicely/internal/authgw/http"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider/gotrue"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider/memory"
	"github.com/aussiebroadwan/invoicely/internal/authgw/service"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store/drivers/postgres"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store/drivers/redis"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store/drivers/sqlite"
	"github.com/aussiebroadwan/invoicely/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application is the auth gateway with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// db is nil with DEVICE_STORE=none.
	db store.Store
	// backend is only set for the memory provider.
	backend *memory.Backend

	sessions            *httpapi.Registry
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New validates cfg and builds the application.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "authgw",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(context.Background()); err != nil {
		return nil, err
	}

	factory, err := app.providerFactory()
	if err != nil {
		app.closeDatabase()
		return nil, err
	}

	app.initServices(factory)
	if err := app.initHTTP(); err != nil {
		app.closeDatabase()
		return nil, err
	}

	return app, nil
}

// Handler is the gateway's root handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth gateway starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"provider", app.cfg.AuthProvider,
		"device_store", app.cfg.DeviceStore,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown drains the server, then stops housekeeping and closes every
// browser session and the device store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()
	app.sessions.Close()

	if err := app.closeDatabase(); err != nil {
		return err
	}

	app.logger.Info("auth gateway stopped")
	return nil
}

func (app *Application) closeDatabase() error {
	if app.db == nil {
		return nil
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing device store", "error", err)
		return err
	}
	return nil
}

// initDatabase opens the device record store and applies migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DeviceStore {
	case StoreNone:
		app.logger.Warn("device store disabled; trust is validated from cookies only")
		return nil
	case StoreSQLite:
		db, err = sqlite.NewStore(fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", app.cfg.DatabaseFile))
	case StorePostgres:
		db, err = postgres.NewStore(ctx, postgres.Config{DSN: app.cfg.PostgresDSN})
	case StoreRedis:
		db, err = redis.Open(ctx, app.cfg.RedisURL, redis.Options{})
	}
	if err != nil {
		return fmt.Errorf("failed to initialize device store: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("device store ready", "driver", app.cfg.DeviceStore)
	return nil
}

// providerFactory returns a constructor for per-browser provider clients.
func (app *Application) providerFactory() (httpapi.ProviderFactory, error) {
	log := app.logger.With("component", "provider")

	switch app.cfg.AuthProvider {
	case ProviderMemory:
		backend, err := memory.NewBackend(memory.Config{
			Issuer:      "invoicely",
			AutoConfirm: app.cfg.MemoryAutoConfirm,
			Logger:      log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory provider: %w", err)
		}
		app.backend = backend
		app.logger.Warn("using in-memory identity provider; accounts are lost on restart")
		return func() (provider.IdentityProvider, error) { return backend.NewClient(), nil }, nil

	default:
		cfg := gotrue.Config{
			BaseURL:    app.cfg.GoTrueURL,
			APIKey:     app.cfg.GoTrueAPIKey,
			HTTPClient: &http.Client{Timeout: 10 * time.Second},
			Logger:     log,
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return func() (provider.IdentityProvider, error) { return gotrue.New(cfg) }, nil
	}
}

// initServices builds the browser session registry and housekeeping.
func (app *Application) initServices(factory httpapi.ProviderFactory) {
	var devices store.Devices
	if app.db != nil {
		devices = app.db.Devices()
	}

	app.sessions = &httpapi.Registry{
		NewProvider: factory,
		Devices:     devices,
		TrustTTL:    app.cfg.DeviceTrustTTL,
		AppOrigin:   app.cfg.AppOrigin,
		IdleTimeout: app.cfg.SessionIdleTimeout,
		Logger:      app.logger,
	}

	sweepers := []service.Sweeper{
		{Name: "idle_sessions", Sweep: app.sessions.SweepIdle},
	}
	if devices != nil {
		sweepers = append(sweepers, service.DeviceSweeper(devices, time.Now))
	}
	app.housekeepingService = service.NewHousekeepingService(
		app.logger,
		app.cfg.HousekeepingInterval,
		sweepers...,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() error {
	cookies, err := httpapi.NewDeviceCookies([]byte(app.cfg.DeviceCookieSecret), app.cfg.SecureCookies())
	if err != nil {
		return fmt.Errorf("failed to initialize device cookies: %w", err)
	}

	router := httpapi.NewRouter(
		app.sessions,
		cookies,
		app.db,
		app.cfg.CORSAllowedOrigins,
		BuildVersion,
		app.logger,
	)
	router.SecureCookies = app.cfg.SecureCookies()
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
