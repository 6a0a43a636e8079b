// Package order assembles the gift-card order service from its layers.
package order

import (
	"context"
	"fmt"
	"net/http"

	"giftify/internal/pkg/auth"
	"giftify/internal/pkg/bootstrap"
	"giftify/internal/pkg/cipher"
	"giftify/internal/pkg/logger"
	"giftify/internal/pkg/mq"
	"giftify/internal/pkg/redis"
	"giftify/internal/pkg/zookeeper"
	"giftify/internal/service/order/application"
	"giftify/internal/service/order/application/saga"
	"giftify/internal/service/order/domain"
	"giftify/internal/service/order/domain/port"
	"giftify/internal/service/order/domain/service"
	"giftify/internal/service/order/infrastructure"
	"giftify/internal/service/order/infrastructure/adapter"
	"giftify/internal/service/order/infrastructure/memory"
	"giftify/internal/service/order/interfaces"
)

// Repositories is the persistence layer selected by store.driver.
type Repositories struct {
	Users        domain.UserRepository
	Carts        domain.CartRepository
	Orders       domain.OrderRepository
	Transactions domain.TransactionRepository
	GiftCards    domain.GiftCardRepository
	Catalog      domain.CatalogRepository
}

// OpenRepositories opens the configured store and registers its teardown.
func OpenRepositories(app *bootstrap.AppCtx) (*Repositories, error) {
	cfg := app.Config
	if cfg.Store.Driver == "memory" {
		logger.L().Warn().Msg("using the in-memory store; data is lost on restart")
		s := memory.NewStore()
		return &Repositories{
			Users:        s.Users(),
			Carts:        s.Carts(),
			Orders:       s.Orders(),
			Transactions: s.Transactions(),
			GiftCards:    s.GiftCards(),
			Catalog:      s.Catalog(),
		}, nil
	}

	mc := cfg.Infra.MySQL
	db, err := infrastructure.OpenDatabase(infrastructure.DatabaseConfig{
		Driver:       cfg.Store.Driver,
		Host:         mc.Host,
		Port:         mc.Port,
		User:         mc.User,
		Password:     mc.Password,
		Name:         mc.Database,
		SQLitePath:   cfg.Infra.SQLite.Path,
		MaxOpenConns: mc.MaxOpenConns,
		MaxIdleConns: mc.MaxIdleConns,
		AutoMigrate:  mc.AutoMigrate || cfg.Store.Driver == "sqlite",
		LogQueries:   mc.LogQueries,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	app.OnShutdown("database", func(context.Context) error { return sqlDB.Close() })

	s := infrastructure.NewGormStore(db)
	return &Repositories{
		Users:        s.Users(),
		Carts:        s.Carts(),
		Orders:       s.Orders(),
		Transactions: s.Transactions(),
		GiftCards:    s.GiftCards(),
		Catalog:      s.Catalog(),
	}, nil
}

// NewInventoryService builds the gift-card inventory over repos with the
// configured key and reservation window.
func NewInventoryService(cfg *bootstrap.Config, repos *Repositories) (*service.InventoryService, error) {
	box, err := cipher.NewBox(cfg.Crypto.GiftCardKey)
	if err != nil {
		return nil, err
	}
	return service.NewInventoryService(repos.GiftCards, box, cfg.Inventory.ReservationTTL()), nil
}

// NewCatalogService builds the catalog with the redis brand cache when redis
// is enabled, else an in-process one.
func NewCatalogService(app *bootstrap.AppCtx, repos *Repositories, inventory *service.InventoryService) (*application.CatalogService, error) {
	cfg := app.Config
	var cache port.BrandCache = adapter.NewBrandCacheMemoryAdapter(cfg.Catalog.CacheTTL)
	if cfg.Infra.Redis.Enabled {
		rc, err := redis.NewClient(cfg.Infra.Redis.Addrs, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
		if err != nil {
			return nil, err
		}
		app.OnShutdown("redis", func(context.Context) error { return rc.Close() })
		cache = adapter.NewBrandCacheRedisAdapter(rc, cfg.Catalog.CacheTTL)
	}
	return application.NewCatalogService(repos.Catalog, inventory, cache, app.Tracer), nil
}

func newPublisher(app *bootstrap.AppCtx) port.EventPublisher {
	kc := app.Config.Infra.Kafka
	if !kc.Enabled {
		return adapter.NewEventLogAdapter()
	}
	publisher := adapter.NewEventKafkaAdapter(
		mq.NewKafkaWriter(kc.Brokers, kc.OrderEventsTopic),
		mq.NewKafkaWriter(kc.Brokers, kc.ReconciliationTopic),
	)
	app.OnShutdown("kafka writers", func(context.Context) error { return publisher.Close() })
	return publisher
}

func newLocker(app *bootstrap.AppCtx) (port.CheckoutLocker, error) {
	if !app.Config.App.FeatureFlags.CheckoutLock {
		return nil, nil
	}
	zc := app.Config.Infra.ZooKeeper
	conn, err := zookeeper.Connect(zc.Servers, zc.SessionTimeout)
	if err != nil {
		return nil, err
	}
	app.OnShutdown("zookeeper", func(context.Context) error { conn.Close(); return nil })
	return adapter.NewCheckoutLockZkAdapter(conn), nil
}

// NewHTTPHandler wires every layer and returns the REST router.
func NewHTTPHandler(app *bootstrap.AppCtx) (http.Handler, error) {
	cfg := app.Config

	repos, err := OpenRepositories(app)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	inventory, err := NewInventoryService(cfg, repos)
	if err != nil {
		return nil, err
	}
	catalog, err := NewCatalogService(app, repos, inventory)
	if err != nil {
		return nil, fmt.Errorf("brand cache: %w", err)
	}
	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	locker, err := newLocker(app)
	if err != nil {
		return nil, fmt.Errorf("checkout lock: %w", err)
	}

	wallet := service.NewWalletService(repos.Users, repos.Transactions, cfg.Wallet.MaxBalance)
	deps := saga.Dependencies{
		Users:     repos.Users,
		Carts:     repos.Carts,
		Orders:    repos.Orders,
		Catalog:   repos.Catalog,
		Inventory: inventory,
		Wallet:    wallet,
		Publisher: newPublisher(app),
	}

	handler := interfaces.NewOrderHandler(interfaces.Services{
		Orders:  application.NewOrderApplicationService(deps, locker, cfg.App.ProcessingTimeout, app.Tracer),
		Wallet:  application.NewWalletApplicationService(wallet, app.Tracer),
		Carts:   application.NewCartService(repos.Carts, repos.Catalog, cfg.Cart.MaxQuantityPerItem, app.Tracer),
		Catalog: catalog,
		Users:   application.NewUserService(repos.Users, tokens, app.Tracer),
	}, app.Tracer, cfg.App.FeatureFlags.DebugErrors)
	return handler.Routes(), nil
}
