// Package app wires configuration into a running back office: the storage
// engine with its persister, the repository, services, session manager and
// backup service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/celerix-dev/celerix-gestao/internal/backup"
	"github.com/celerix-dev/celerix-gestao/internal/config"
	"github.com/celerix-dev/celerix-gestao/internal/database"
	"github.com/celerix-dev/celerix-gestao/internal/engine"
	"github.com/celerix-dev/celerix-gestao/internal/metrics"
	"github.com/celerix-dev/celerix-gestao/internal/persistence/postgres"
	"github.com/celerix-dev/celerix-gestao/internal/persistence/sqlite"
	"github.com/celerix-dev/celerix-gestao/internal/services"
	"github.com/celerix-dev/celerix-gestao/internal/session"
	pengine "github.com/celerix-dev/celerix-gestao/pkg/engine"
	"github.com/celerix-dev/celerix-gestao/pkg/schema"
	"github.com/celerix-dev/celerix-gestao/pkg/sdk"
)

// OpenPersister returns the persister for driver and a func releasing it.
func OpenPersister(ctx context.Context, cfg config.Storage, driver string, log *slog.Logger) (engine.Persister, func() error, error) {
	switch driver {
	case config.DriverFile:
		opts := []engine.Option{engine.WithLogger(log)}
		if cfg.EncryptionKey != nil {
			opts = append(opts, engine.WithEncryptionKey(cfg.EncryptionKey))
		}
		p, err := engine.NewPersistence(cfg.DataDir, opts...)
		if err != nil {
			return nil, nil, err
		}
		return p, func() error { return nil }, nil
	case config.DriverSQLite:
		p, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	case config.DriverPostgres:
		p, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", driver)
}

// OpenStore loads every persisted area into a MemStore. The returned func
// waits for pending writes and releases the persister.
func OpenStore(ctx context.Context, cfg config.Storage, driver string, log *slog.Logger) (*engine.MemStore, func() error, error) {
	p, release, err := OpenPersister(ctx, cfg, driver, log)
	if err != nil {
		return nil, nil, err
	}
	data, err := p.LoadAll()
	if err != nil {
		log.Warn("could not load existing data", slog.Any("error", err))
	}
	store := engine.NewMemStore(data, p)
	store.SetLogger(log)
	log.Info("engine started", slog.String("driver", driver), slog.Int("areas", len(data)))

	return store, func() error {
		store.Wait()
		return release()
	}, nil
}

// Connect returns the daemon client when a remote address is configured and
// the embedded store otherwise.
func Connect(ctx context.Context, cfg *config.Config, log *slog.Logger) (pengine.Store, func() error, error) {
	if addr := cfg.Storage.RemoteAddr; addr != "" {
		c, err := sdk.Connect(addr, sdk.WithTLS(!cfg.Server.DisableTLS), sdk.WithLogger(log))
		if err == nil {
			return c, c.Close, nil
		}
		log.Warn("remote store unavailable, using embedded mode", slog.String("addr", addr), slog.Any("error", err))
	}
	return OpenStore(ctx, cfg.Storage, cfg.Storage.Driver, log)
}

// OpenBackupSink builds the configured backup destination.
func OpenBackupSink(ctx context.Context, cfg config.Backup) (backup.Sink, error) {
	switch cfg.Driver {
	case config.BackupFS:
		return backup.NewFSSink(cfg.Dir)
	case config.BackupS3:
		return backup.NewS3Sink(ctx, backup.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
			Prefix:    cfg.S3Prefix,
		})
	}
	return nil, fmt.Errorf("unknown backup driver %q", cfg.Driver)
}

// App holds the services built on one store.
type App struct {
	Store    pengine.Store
	Repo     *database.Repository
	Services *services.Services
	Session  *session.Registry
	Backups  *backup.Service
	Metrics  *metrics.Metrics
}

// Option configures New.
type Option func(*buildOptions)

type buildOptions struct {
	metrics   *metrics.Metrics
	navigator session.Navigator
}

// WithMetrics records session transitions, storage writes and backups.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *buildOptions) { o.metrics = m }
}

// WithNavigator receives the session's login redirects.
func WithNavigator(n session.Navigator) Option {
	return func(o *buildOptions) { o.navigator = n }
}

func New(ctx context.Context, cfg *config.Config, store pengine.Store, log *slog.Logger, opts ...Option) (*App, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	repo := database.NewRepository(store, database.Options{
		MaxLogEntries: cfg.DB.MaxLogEntries,
		Strict:        cfg.DB.Strict,
		Logger:        log,
	})
	if _, err := repo.Load(ctx); err != nil {
		return nil, fmt.Errorf("load database: %w", err)
	}

	sessOpts := []session.Option{session.WithLogger(log)}
	if o.navigator != nil {
		sessOpts = append(sessOpts, session.WithNavigator(o.navigator))
	}
	if m := o.metrics; m != nil {
		sessOpts = append(sessOpts, session.WithTransitionHook(func(from, to session.State) {
			m.SessionTransition(string(from), string(to))
		}))
		if n, ok := store.(pengine.Notifier); ok {
			m.ObserveStore(n)
		}
	}

	a := &App{
		Store:    store,
		Repo:     repo,
		Services: services.New(repo, log, nil),
		Session: session.NewRegistry(store, session.Config{
			Duration:      cfg.Session.Duration,
			WarningWindow: cfg.Session.WarningWindow,
			CheckInterval: cfg.Session.CheckInterval,
		}, sessOpts...),
		Metrics: o.metrics,
	}

	sink, err := OpenBackupSink(ctx, cfg.Backup)
	if err != nil {
		log.Warn("backups disabled", slog.Any("error", err))
	} else {
		a.Backups = backup.NewService(repo, sink, log)
		if m := o.metrics; m != nil {
			a.Backups.OnResult = m.Backup
		}
	}
	return a, nil
}

// ErrNoAdmin is returned by EnsureAdmin when the registry is empty and no
// bootstrap password is configured.
var ErrNoAdmin = errors.New("no administrator registered")

// EnsureAdmin creates the first administrator when the user registry is
// empty. It does nothing once any user exists.
func (a *App) EnsureAdmin(ctx context.Context, login, password string) error {
	users, err := database.List(ctx, a.Repo, database.Users)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}
	if password == "" {
		return ErrNoAdmin
	}
	active := true
	_, err = a.Services.Users.Create(database.WithActor(ctx, database.SystemActor), services.UserInput{
		Name:     "Administrador",
		Login:    login,
		Role:     schema.RoleAdmin,
		Active:   &active,
		Password: password,
	})
	return err
}
