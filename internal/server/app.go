// Package server wires the postboard application: storage backends, auth and
// post services, the REST API and the gRPC endpoint. It also handles graceful
// shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/postboard/internal/cryptox"
	"github.com/dmitrijs2005/postboard/internal/logging"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"github.com/dmitrijs2005/postboard/internal/server/config"
	"github.com/dmitrijs2005/postboard/internal/server/httpapi"
	"github.com/dmitrijs2005/postboard/internal/server/observability"
	"github.com/dmitrijs2005/postboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/postboard/internal/server/services"
	"github.com/dmitrijs2005/postboard/internal/server/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	gs "github.com/dmitrijs2005/postboard/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	http     *http.Server
	grpc     *gs.GRPCServer
	syncLogs func() error
}

// newLogger picks the backend named by cfg.LogFormat.
func newLogger(cfg *config.Config) (logging.Logger, func() error, error) {
	level := slog.LevelDebug
	if cfg.Production {
		level = slog.LevelInfo
	}
	switch cfg.LogFormat {
	case config.LogFormatText:
		return logging.NewText(os.Stdout, level), func() error { return nil }, nil
	case config.LogFormatZap:
		z, err := logging.NewZapProduction()
		if err != nil {
			return nil, nil, err
		}
		return z, z.Sync, nil
	default:
		return logging.NewJSON(os.Stdout, level), func() error { return nil }, nil
	}
}

// openRepositories returns the PostgreSQL manager, migrated, or the in-memory
// one when no DSN is configured.
func openRepositories(ctx context.Context, cfg *config.Config, log logging.Logger) (repomanager.RepositoryManager, error) {
	if cfg.DatabaseDSN == "" {
		log.Warn(ctx, "no database DSN configured, using in-memory storage")
		return repomanager.NewInMemoryRepositoryManager(), nil
	}

	rm, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return rm, nil
}

func readiness(rm repomanager.RepositoryManager) func(context.Context) error {
	pinger, ok := rm.DB().(interface{ PingContext(context.Context) error })
	if !ok {
		return nil
	}
	return pinger.PingContext
}

// NewApp builds every component from cfg. reg receives the application
// metrics; nil uses the default registry.
func NewApp(ctx context.Context, cfg *config.Config, reg *prometheus.Registry) (*App, error) {
	logger, syncLogs, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	observability.RegisterMetrics(registerer)

	rm, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	issuer, err := auth.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	images, err := storage.NewS3ImageStore(ctx, storage.Options{
		Region:       cfg.S3Region,
		AccessKey:    cfg.S3RootUser,
		SecretKey:    cfg.S3RootPassword,
		BaseEndpoint: cfg.S3BaseEndpoint,
		Bucket:       cfg.S3Bucket,
	})
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("image storage: %w", err)
	}

	tokens := services.NewTokenService(issuer, rm.RefreshTokens(rm.DB()))
	authSvc := services.NewAuthService(rm, cryptox.NewBcryptHasher(cfg.BcryptCost), tokens, logger,
		services.AuthOptions{RevokeOnRefreshReuse: cfg.RevokeOnRefreshReuse})
	postSvc := services.NewPostService(rm, images, logger)
	resolver := auth.NewResolver(issuer)

	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := httpapi.NewHandler(authSvc, postSvc, resolver, logger, httpapi.Options{
		Production:          cfg.Production,
		CookieSecure:        cfg.CookieSecure,
		RefreshCookieMaxAge: cfg.RefreshTokenValidityDuration,
		MaxImageSize:        cfg.MaxImageSize,
		Gatherer:            gatherer,
		Ready:               readiness(rm),
	})

	return &App{
		config: cfg,
		logger: logger,
		repos:  rm,
		http: &http.Server{
			Addr:              cfg.EndpointAddrHTTP,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		grpc:     gs.NewGRPCServer(cfg.EndpointAddrGRPC, logger, resolver),
		syncLogs: syncLogs,
	}, nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.http.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.http.Addr)
	if err := app.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.EndpointAddrGRPC == "" {
		return
	}
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, SIGINT/SIGTERM/SIGQUIT arrives or either
// server fails, then releases the storage.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	_ = app.syncLogs()
	return app.repos.Close()
}
