// Package app wires configuration, storage, use cases and the HTTP server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/adapter/cache"
	"github.com/vadimbarashkov/shortlink/internal/adapter/clientinfo"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/postgres"
	"github.com/vadimbarashkov/shortlink/internal/auth"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"github.com/vadimbarashkov/shortlink/migrations"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
	pgpkg "github.com/vadimbarashkov/shortlink/pkg/postgres"
)

const connectAttempts = 5

type linkRepository interface {
	Create(ctx context.Context, link *entity.Link) (*entity.Link, error)
	GetByID(ctx context.Context, id int64) (*entity.Link, error)
	FindByHandle(ctx context.Context, handle string) (*entity.Link, error)
	ListByOwner(ctx context.Context, ownerID string) ([]entity.Link, error)
	Update(ctx context.Context, link *entity.Link, prevAlias string) (*entity.Link, error)
	Delete(ctx context.Context, id int64) error
	IncrementCounters(ctx context.Context, id int64, delta entity.CounterDelta, at time.Time) error
}

type visitRepository interface {
	Append(ctx context.Context, visit *entity.VisitEvent) (*entity.VisitEvent, error)
	ListByLink(ctx context.Context, linkID int64, from, to time.Time) ([]entity.VisitEvent, error)
	ListByOwner(ctx context.Context, ownerID string, from, to time.Time) ([]entity.VisitEvent, error)
	ListRecentByOwner(ctx context.Context, ownerID string, limit int) ([]entity.VisitEvent, error)
}

// App holds the use cases built from a Config and the resources they depend on.
type App struct {
	Links     *usecase.LinkUseCase
	Recorder  *usecase.VisitRecorder
	Resolver  *usecase.Resolver
	Analytics *usecase.AnalyticsUseCase
	Locator   clientinfo.Locator

	closers []func() error
}

// NewLogger returns the structured request logger for cfg.Env.
func NewLogger(cfg *config.Config) *httplog.Logger {
	opts := httplog.Options{
		LogLevel:        slog.LevelInfo,
		Concise:         true,
		QuietDownRoutes: []string{"/api/v1/ping"},
		QuietDownPeriod: time.Minute,
		Writer:          os.Stdout,
	}

	switch cfg.Env {
	case config.EnvDev:
		opts.LogLevel = slog.LevelDebug
	default:
		opts.JSON = true
		opts.Concise = false
		opts.Tags = map[string]string{"env": cfg.Env}
	}

	return httplog.NewLogger("shortlink", opts)
}

// New connects the configured storage and builds the use cases on top of it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	a := &App{}

	var (
		links  linkRepository
		visits visitRepository
	)

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		store := memory.New()
		links, visits = store.Links(), store.Visits()
	default:
		db, err := pgpkg.New(
			ctx,
			cfg.Postgres.DSN(),
			pgpkg.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			pgpkg.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			pgpkg.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			pgpkg.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
			pgpkg.WithConnectRetries(connectAttempts, time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
		}
		a.closers = append(a.closers, db.Close)

		if cfg.Postgres.AutoMigrate {
			if err := pgpkg.RunMigrations(migrations.FS, cfg.Postgres.DSN()); err != nil {
				a.Close()
				return nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
			}
		}

		links, visits = postgres.NewLinkRepository(db), postgres.NewVisitRepository(db)
	}

	if cfg.Redis.Enabled {
		client, err := cache.NewClient(ctx, &redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}
		a.closers = append(a.closers, client.Close)

		links = cache.NewLinkRepository(links, client, cfg.Redis.TTL, logger)
	}

	a.Locator = clientinfo.NopLocator{}
	if cfg.GeoIP.DBPath != "" {
		locator, err := clientinfo.OpenGeoIP(cfg.GeoIP.DBPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.Locator = locator
		a.closers = append(a.closers, locator.Close)
	}

	a.Links = usecase.NewLinkUseCase(links, cfg.ShortCodeLength)
	a.Recorder = usecase.NewVisitRecorder(visits, a.Links)
	a.Resolver = usecase.NewResolver(a.Links, a.Recorder, logger)
	a.Analytics = usecase.NewAnalyticsUseCase(links, visits, cfg.Analytics.TopLinks, cfg.Analytics.RecentVisits)

	return a, nil
}

// Close releases the resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Handler builds the HTTP handler serving a.
func (a *App) Handler(cfg *config.Config, logger *httplog.Logger) http.Handler {
	opts := delivery.Options{
		BaseURL:        cfg.BaseURL,
		RequestTimeout: cfg.HTTPServer.RequestTimeout,
		Locator:        a.Locator,
	}
	if cfg.Auth.JWTSecret != "" {
		opts.Tokens = auth.NewIssuer(cfg.Auth.JWTSecret)
	}

	return delivery.NewRouter(logger, opts, a.Links, a.Resolver, a.Analytics)
}

// Run serves the API until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := NewLogger(cfg)

	a, err := New(ctx, cfg, logger.Logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer a.Close()

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        a.Handler(cfg, logger),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server",
			slog.String("addr", server.Addr),
			slog.String("env", cfg.Env),
			slog.String("storage", cfg.Storage.Driver),
		)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.WriteTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
