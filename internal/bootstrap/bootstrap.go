// Package bootstrap turns configuration into a running object graph: the
// store adapter, the revocation cache, the notification pool, the services
// and the log sinks. cmd/billdesk is its only caller.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/app/repositories/memstore"
	"github.com/shashiranjanraj/billdesk/app/repositories/mongostore"
	"github.com/shashiranjanraj/billdesk/app/repositories/sqlstore"
	"github.com/shashiranjanraj/billdesk/app/routes"
	"github.com/shashiranjanraj/billdesk/app/services"
	"github.com/shashiranjanraj/billdesk/config"
	"github.com/shashiranjanraj/billdesk/pkg/auth"
	"github.com/shashiranjanraj/billdesk/pkg/cache"
	"github.com/shashiranjanraj/billdesk/pkg/database"
	"github.com/shashiranjanraj/billdesk/pkg/logger"
	"github.com/shashiranjanraj/billdesk/pkg/workerpool"
)

const logCollection = "app_logs"

type App struct {
	Store    repositories.Store
	Cache    cache.Store
	Pool     *workerpool.Pool
	Services routes.Services

	closers []func(context.Context) error
}

// OpenStore connects the adapter chosen by STORE_DRIVER. It does not migrate.
func OpenStore(ctx context.Context) (repositories.Store, error) {
	switch config.StoreDriver() {
	case "memory":
		return memstore.New(), nil
	case "sql":
		db, err := database.OpenSQL(config.DatabaseDriver(), config.DatabaseDSN(), database.SQLOptions{})
		if err != nil {
			return nil, err
		}
		return sqlstore.New(db), nil
	default:
		client, err := database.ConnectMongo(ctx, config.MongoURI())
		if err != nil {
			return nil, err
		}
		return mongostore.New(client, config.MongoDatabase()), nil
	}
}

// New builds the whole graph. Migrate is idempotent, so the store is
// migrated on every start.
func New(ctx context.Context) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	a := &App{}
	a.configureLogging(ctx)

	store, err := OpenStore(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	if err := store.Migrate(ctx); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("migrate %s store: %w", store.Driver(), err)
	}

	revoked, err := cache.New(ctx, cache.Options{
		Driver:   config.CacheDriver(),
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
	})
	if err != nil {
		// A memory fallback comes back with the error. Revocations then only
		// hold for this process.
		logger.Warn("cache unavailable, using memory", "error", err)
	}
	a.Cache = revoked
	if c, ok := revoked.(io.Closer); ok {
		a.closers = append(a.closers, func(context.Context) error { return c.Close() })
	}

	a.Pool = workerpool.New("notify", config.NotifyWorkers())
	a.closers = append(a.closers, func(context.Context) error {
		a.Pool.Shutdown()
		return nil
	})

	if config.JWTSecret() == "change-me-in-production" && config.IsProduction() {
		logger.Warn("JWT_SECRET is the default value")
	}

	a.Services = Wire(store, revoked, a.Pool)
	return a, nil
}

// Wire builds the services over an existing store. Tests call it with the
// memory store.
func Wire(store repositories.Store, revoked cache.Store, pool *workerpool.Pool) routes.Services {
	signer := auth.NewSigner(config.JWTSecret())
	notifier := services.NewNotifier(store.Notifications(), pool)

	return routes.Services{
		Auth:      services.NewAuthService(store, signer, revoked),
		Tenants:   services.NewTenantService(store),
		Catalog:   services.NewCatalogService(store),
		Customers: services.NewCustomerService(store),
		Purchases: services.NewPurchaseService(store,
			services.WithPricing(config.PricingSource()),
			services.WithNotifier(notifier),
		),
		CookieSecure: config.CookieSecure(),
		LoginLimit:   config.LoginRateLimit(),
	}
}

func (a *App) configureLogging(ctx context.Context) {
	if !config.LogToMongo() {
		logger.Configure(config.AppEnv())
		return
	}

	client, err := database.ConnectMongo(ctx, config.MongoURI())
	if err != nil {
		logger.Configure(config.AppEnv())
		logger.Warn("mongo log sink disabled", "error", err)
		return
	}

	sink := logger.NewMongoHandler(ctx, client.Database(config.MongoDatabase()), logCollection, slog.LevelInfo)
	logger.Configure(config.AppEnv(), sink)
	a.closers = append(a.closers, func(ctx context.Context) error {
		sink.Close()
		return client.Disconnect(ctx)
	})
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
