package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mrlokans/bookinfo/internal/auth"
	"github.com/mrlokans/bookinfo/internal/catalog"
	"github.com/mrlokans/bookinfo/internal/config"
	"github.com/mrlokans/bookinfo/internal/covers"
	"github.com/mrlokans/bookinfo/internal/database"
	"github.com/mrlokans/bookinfo/internal/database/favourites"
	"github.com/mrlokans/bookinfo/internal/database/users"
	http_controllers "github.com/mrlokans/bookinfo/internal/http"
	"github.com/mrlokans/bookinfo/internal/library"
	"github.com/mrlokans/bookinfo/internal/logger"
	"github.com/mrlokans/bookinfo/internal/metrics"
	"github.com/mrlokans/bookinfo/internal/scheduler"
	"github.com/mrlokans/bookinfo/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the dependencies shared by the server and the CLI commands.
type App struct {
	Config     *config.Config
	DB         *database.Database
	Catalog    catalog.Provider
	Favourites *favourites.Repository
	Users      *users.Repository
	Library    *library.Service
}

// NewApp opens the database and builds the library service. opts are passed
// through to the service.
func NewApp(cfg *config.Config, opts ...library.Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	provider, err := catalog.NewProvider(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	favouritesRepo := favourites.NewRepository(db.DB)
	return &App{
		Config:     cfg,
		DB:         db,
		Catalog:    provider,
		Favourites: favouritesRepo,
		Users:      users.NewRepository(db.DB),
		Library:    library.NewService(provider, favouritesRepo, opts...),
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// within the configured timeout.
func Serve(ctx context.Context, handler http.Handler, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.L.Info("Shutting down server", zap.Duration("timeout", timeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away.
	if onShutdown != nil {
		onShutdown(shutdownCtx)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.L.Info("Server exiting")
	return nil
}

// Run wires every component from cfg and serves until SIGINT or SIGTERM.
func Run(cfg *config.Config, version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.L.Info("Starting bookinfo", zap.String("version", version))

	var collector *metrics.Collector
	var opts []library.Option
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(prometheus.NewRegistry())
		opts = append(opts, library.WithMetrics(collector))
	}

	coverCache := newCoverCache(cfg)
	if coverCache != nil {
		opts = append(opts, library.WithCoverInvalidator(coverCache))
	}

	// The task queue lives next to a SQLite file, so it is skipped for
	// PostgreSQL and in-memory databases. Covers are then fetched on first view.
	var taskClient *tasks.Client
	if cfg.Tasks.Enabled && coverCache != nil && database.DialectFor(cfg.Database.URL) == database.DialectSQLite && cfg.Database.URL != ":memory:" {
		var err error
		taskClient, err = tasks.NewClient(cfg.Database.URL, tasks.FromConfig(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.L.Error("Error closing task client", zap.Error(err))
			}
		}()
		taskClient.Register(tasks.NewCacheCoverQueue(coverCache))
		opts = append(opts, library.WithCoverWarmer(taskClient))
	}

	app, err := NewApp(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.L.Error("Error closing database", zap.Error(err))
		}
	}()

	taskCtx, taskCancel := context.WithCancel(ctx)
	defer taskCancel()
	if taskClient != nil {
		go taskClient.Start(taskCtx)
	}

	if coverCache != nil && cfg.Covers.PruneSchedule != "" {
		pruner := scheduler.NewCoverPruneScheduler(app.Favourites, coverCache, cfg.Covers.PruneSchedule)
		if err := pruner.Start(taskCtx); err != nil {
			logger.L.Warn("Cover prune scheduler disabled", zap.Error(err))
		}
	}

	authParts, err := setupAuth(cfg, app)
	if err != nil {
		return err
	}

	router, err := http_controllers.NewRouter(http_controllers.RouterConfig{
		Library:        app.Library,
		Database:       app.DB,
		CoverCache:     coverCache,
		Collector:      collector,
		AuthConfig:     cfg.Auth,
		SessionManager: authParts.sessions,
		AuthMiddleware: authParts.middleware,
		AuthController: authParts.controller,
		CSRFSecret:     authParts.csrfKey,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		Version:        version,
	})
	if err != nil {
		return err
	}

	onShutdown := func(ctx context.Context) {
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		taskCancel()
	}

	return Serve(ctx, router, cfg, onShutdown)
}

func newCoverCache(cfg *config.Config) *covers.Cache {
	if !cfg.Covers.Enabled {
		return nil
	}
	cache, err := covers.NewCache(cfg.Covers.Dir)
	if err != nil {
		logger.L.Warn("Failed to initialize cover cache", zap.Error(err))
		return nil
	}
	logger.L.Info("Cover cache initialized", zap.String("dir", cache.CacheDir()))
	return cache
}

type authComponents struct {
	sessions   *auth.SessionManager
	middleware *auth.Middleware
	controller *auth.AuthController
	csrfKey    []byte
}

// setupAuth builds the session, CSRF and OAuth components for oauth mode.
// None mode needs none of them.
func setupAuth(cfg *config.Config, app *App) (*authComponents, error) {
	if cfg.Auth.Mode != config.AuthModeOAuth {
		logger.L.Info("Authentication mode: none (every request runs as the local user)")
		return &authComponents{}, nil
	}
	logger.L.Info("Authentication mode: oauth")

	secret := cfg.Auth.SessionSecret
	if secret == "" {
		generated, err := auth.GenerateSessionSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		secret = generated
		logger.L.Warn("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	}

	csrfKey, err := auth.DeriveKey(secret, auth.PurposeCSRF)
	if err != nil {
		return nil, err
	}

	var sessions *auth.SessionManager
	if app.DB.Dialect == database.DialectSQLite {
		sqlDB, err := app.DB.DB.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get SQL DB for sessions: %w", err)
		}
		if sessions, err = auth.NewSessionManager(sqlDB, cfg.Auth); err != nil {
			return nil, fmt.Errorf("failed to initialize session manager: %w", err)
		}
	} else {
		logger.L.Warn("Sessions are kept in memory and do not survive a restart")
		sessions = auth.NewMemorySessionManager(cfg.Auth)
	}

	provider := auth.NewOIDCProvider(cfg.Auth)
	return &authComponents{
		sessions:   sessions,
		middleware: auth.NewMiddleware(sessions, app.Users, cfg.Auth),
		controller: auth.NewAuthController(provider, sessions, app.Users),
		csrfKey:    csrfKey,
	}, nil
}
