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

	httpapi "github.com/aussiebroadwan/notesauth/internal/auth/http"
	"github.com/aussiebroadwan/notesauth/internal/auth/lockout"
	"github.com/aussiebroadwan/notesauth/internal/auth/service"
	"github.com/aussiebroadwan/notesauth/internal/auth/store"
	"github.com/aussiebroadwan/notesauth/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/notesauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/notesauth/pkg/cryptox"
	"github.com/aussiebroadwan/notesauth/pkg/httpx"
	"github.com/aussiebroadwan/notesauth/pkg/jwtx"
	"github.com/aussiebroadwan/notesauth/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application owns the notes service and its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	redis *redis.Client // nil when lockout is disabled

	sessionService      *service.SessionService
	noteService         *service.NoteService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New validates cfg and initialises every dependency. Migrations are
// applied before it returns.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "notesauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := ensureSigningSecrets(&app.cfg, app.logger); err != nil {
		return nil, err
	}
	if err := app.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("notes service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.close()
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down notes service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.close(); err != nil {
		return err
	}

	app.logger.Info("notes service stopped")
	return nil
}

func (app *Application) close() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initDatabase opens the configured store and applies migrations
func (app *Application) initDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := openStore(ctx, app.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	driver, _ := app.cfg.Database()
	app.logger.Info("database migrations applied successfully", "driver", driver)
	return nil
}

func openStore(ctx context.Context, cfg Config) (store.Store, error) {
	driver, target := cfg.Database()
	switch driver {
	case DriverPostgres:
		return postgres.NewStore(ctx, target)
	default:
		return sqlite.NewStore(target)
	}
}

// initServices initializes the business logic services
func (app *Application) initServices() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	tokens := tokenConfig(app.cfg)
	if err := tokens.Validate(); err != nil {
		return err
	}

	app.sessionService = &service.SessionService{
		Store:        app.db,
		Hasher:       cryptox.NewHasher(cryptox.DefaultParams, pepper),
		Codec:        jwtx.NewCodec(time.Now),
		Tokens:       tokens,
		Guard:        app.initLockout(),
		StoreTimeout: app.cfg.StoreTimeout,
	}

	app.noteService = &service.NoteService{
		Store:        app.db,
		StoreTimeout: app.cfg.StoreTimeout,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.AuditRetention,
	)

	return nil
}

// initLockout connects to Redis when configured. An unreachable server is
// only logged: the guard fails open.
func (app *Application) initLockout() lockout.Guard {
	if app.cfg.RedisAddr == "" {
		app.logger.Info("login lockout disabled (AUTH_REDIS_ADDR not set)")
		return lockout.NopGuard{}
	}

	app.redis = redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := app.redis.Ping(ctx).Err(); err != nil {
		app.logger.Warn("redis unreachable; lockout fails open until it recovers", "addr", app.cfg.RedisAddr, "error", err)
	}

	app.logger.Info("login lockout enabled",
		"max_attempts", app.cfg.LoginMaxAttempts,
		"window", app.cfg.LoginLockout,
	)
	return lockout.NewRedisGuard(app.redis, lockout.Config{
		MaxAttempts: app.cfg.LoginMaxAttempts,
		Cooldown:    app.cfg.LoginLockout,
	})
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	// Validate has already accepted both values
	sameSite, _ := httpapi.ParseSameSite(app.cfg.CookieSameSite)
	proxies, _ := app.cfg.Proxies()

	if len(proxies) > 0 {
		app.logger.Info("honouring forwarding headers", "trusted_proxies", app.cfg.TrustedProxies)
	}

	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.logger,
		httpx.SplitOrigins(app.cfg.CORSOrigins),
		proxies,
	)

	router.SessionService = app.sessionService
	router.NoteService = app.noteService
	router.Cookies = httpapi.CookieConfig{
		Domain:     app.cfg.CookieDomain,
		Secure:     app.cfg.CookieSecure,
		SameSite:   sameSite,
		AccessTTL:  app.cfg.AccessTTL(),
		RefreshTTL: app.cfg.RefreshTTL(),
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
