package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/auth/domain"
	httpapi "github.com/aussiebroadwan/tokengate/internal/auth/http"
	"github.com/aussiebroadwan/tokengate/internal/auth/metrics"
	"github.com/aussiebroadwan/tokengate/internal/auth/service"
	"github.com/aussiebroadwan/tokengate/internal/auth/store"
	"github.com/aussiebroadwan/tokengate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tokengate/pkg/cryptox"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	keys     *jwtx.KeyPair
	hasher   *cryptox.PasswordHasher
	registry *prometheus.Registry

	tokenService        *service.TokenService
	userService         *service.UserService
	rolesService        *service.RolesService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router

	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tokengate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	keys, err := LoadKeys(cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.keys = keys

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewPasswordHasher(pepper)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()

	if err := app.bootstrap(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Handler exposes the routed HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	ln, err := net.Listen("tcp", app.server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is cancelled, then shuts down
// gracefully.
func (app *Application) Serve(ctx context.Context, ln net.Listener) error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "addr", ln.Addr().String(), "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application. Later calls return the
// result of the first.
func (app *Application) Shutdown() error {
	app.shutdownOnce.Do(func() { app.shutdownErr = app.shutdown() })
	return app.shutdownErr
}

func (app *Application) shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the user store and applies migrations
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	version, err := db.SchemaVersion()
	if err != nil {
		_ = db.Close()
		return err
	}
	app.logger.Info("database ready", "file", app.cfg.DatabaseFile, "schema_version", version)
	return nil
}

func (app *Application) initServices() {
	app.rolesService = &service.RolesService{Store: app.db}
	app.userService = &service.UserService{Store: app.db, Hasher: app.hasher}
	app.bootstrapService = &service.BootstrapService{Store: app.db, Hasher: app.hasher}

	app.tokenService = service.NewTokenService(jwtx.NewCodec(app.keys))
	app.tokenService.AccessTTL = app.cfg.AccessTTL
	app.tokenService.RefreshTTL = app.cfg.RefreshTTL
	app.tokenService.Roles = app.rolesService

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.tokenService.Metrics = metrics.New(app.registry, app.tokenService.Revoked.Len)

	app.housekeepingService = service.NewHousekeepingService(
		app.tokenService,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// bootstrap creates the configured admin user on first start.
func (app *Application) bootstrap(ctx context.Context) error {
	if app.cfg.BootstrapUsername == "" {
		return nil
	}

	ctx = slogx.WithContext(ctx, app.logger)
	id, password, err := app.bootstrapService.Bootstrap(ctx, domain.BootstrapData{
		Username: app.cfg.BootstrapUsername,
		Password: app.cfg.BootstrapPassword,
		Roles:    app.cfg.BootstrapRoles,
	})
	switch {
	case errors.Is(err, service.ErrBootstrapAlready):
		app.logger.Debug("bootstrap skipped, users already exist")
		return nil
	case err != nil:
		return fmt.Errorf("bootstrap: %w", err)
	}

	app.logger.Info("bootstrap user created", "user_id", id, "username", app.cfg.BootstrapUsername)
	if app.cfg.BootstrapPassword == "" {
		// Shown once; it is not stored anywhere in clear text.
		app.logger.Warn("generated bootstrap password", "password", password)
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.keys, BuildVersion, app.db, app.logger)

	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.RolesService = app.rolesService
	router.Cookies = httpapi.CookieConfig{
		Secure:   app.cfg.CookieSecure,
		Domain:   app.cfg.CookieDomain,
		SameSite: app.cfg.CookieSameSite,
	}
	router.Limits = httpapi.RateLimits{
		Strict:   app.cfg.RateLimitStrict,
		Moderate: app.cfg.RateLimitModerate,
		Public:   app.cfg.RateLimitPublic,
	}
	router.Metrics = promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
