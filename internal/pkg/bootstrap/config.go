// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "GIFTIFY_CONFIG"
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "GIFTIFY_"
)

type Config struct {
	App       AppConfig       `yaml:"app" envPrefix:"APP_"`
	Infra     InfraConfig     `yaml:"infra" envPrefix:"INFRA_"`
	Store     StoreConfig     `yaml:"store" envPrefix:"STORE_"`
	Auth      AuthConfig      `yaml:"auth" envPrefix:"AUTH_"`
	Crypto    CryptoConfig    `yaml:"crypto" envPrefix:"CRYPTO_"`
	Wallet    WalletConfig    `yaml:"wallet" envPrefix:"WALLET_"`
	Cart      CartConfig      `yaml:"cart" envPrefix:"CART_"`
	Inventory InventoryConfig `yaml:"inventory" envPrefix:"INVENTORY_"`
	Catalog   CatalogConfig   `yaml:"catalog" envPrefix:"CATALOG_"`
}

type AppConfig struct {
	Name              string        `yaml:"name" env:"NAME"`
	Port              int           `yaml:"port" env:"PORT"`
	LogLevel          string        `yaml:"logLevel" env:"LOG_LEVEL"`
	LogFormat         string        `yaml:"logFormat" env:"LOG_FORMAT"`
	ProcessingTimeout time.Duration `yaml:"processingTimeout" env:"PROCESSING_TIMEOUT"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT"`
	FeatureFlags      FeatureFlags  `yaml:"featureFlags" envPrefix:"FEATURE_"`
}

type FeatureFlags struct {
	// DebugErrors adds stack traces to error responses.
	DebugErrors bool `yaml:"debugErrors" env:"DEBUG_ERRORS"`
	// CheckoutLock serialises checkouts per user through zookeeper.
	CheckoutLock bool `yaml:"checkoutLock" env:"CHECKOUT_LOCK"`
}

type InfraConfig struct {
	MySQL     MySQLConfig     `yaml:"mysql" envPrefix:"MYSQL_"`
	SQLite    SQLiteConfig    `yaml:"sqlite" envPrefix:"SQLITE_"`
	Redis     RedisConfig     `yaml:"redis" envPrefix:"REDIS_"`
	Kafka     KafkaConfig     `yaml:"kafka" envPrefix:"KAFKA_"`
	Jaeger    JaegerConfig    `yaml:"jaeger" envPrefix:"JAEGER_"`
	Nacos     NacosConfig     `yaml:"nacos" envPrefix:"NACOS_"`
	ZooKeeper ZooKeeperConfig `yaml:"zookeeper" envPrefix:"ZOOKEEPER_"`
}

type MySQLConfig struct {
	Host         string `yaml:"host" env:"HOST"`
	Port         int    `yaml:"port" env:"PORT"`
	User         string `yaml:"user" env:"USER"`
	Password     string `yaml:"password" env:"PASSWORD"`
	Database     string `yaml:"database" env:"DATABASE"`
	MaxOpenConns int    `yaml:"maxOpenConns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns int    `yaml:"maxIdleConns" env:"MAX_IDLE_CONNS"`
	AutoMigrate  bool   `yaml:"autoMigrate" env:"AUTO_MIGRATE"`
	LogQueries   bool   `yaml:"logQueries" env:"LOG_QUERIES"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Addrs    string `yaml:"addrs" env:"ADDRS"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

type KafkaConfig struct {
	Enabled             bool     `yaml:"enabled" env:"ENABLED"`
	Brokers             []string `yaml:"brokers" env:"BROKERS" envSeparator:","`
	OrderEventsTopic    string   `yaml:"orderEventsTopic" env:"ORDER_EVENTS_TOPIC"`
	ReconciliationTopic string   `yaml:"reconciliationTopic" env:"RECONCILIATION_TOPIC"`
	ConsumerGroup       string   `yaml:"consumerGroup" env:"CONSUMER_GROUP"`
}

type JaegerConfig struct {
	Endpoint    string  `yaml:"endpoint" env:"ENDPOINT"`
	SampleRatio float64 `yaml:"sampleRatio" env:"SAMPLE_RATIO"`
}

type NacosConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Addrs     string `yaml:"addrs" env:"ADDRS"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
	Group     string `yaml:"group" env:"GROUP"`
}

type ZooKeeperConfig struct {
	Servers        string        `yaml:"servers" env:"SERVERS"`
	SessionTimeout time.Duration `yaml:"sessionTimeout" env:"SESSION_TIMEOUT"`
}

type StoreConfig struct {
	// Driver is mysql, sqlite or memory.
	Driver string `yaml:"driver" env:"DRIVER"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwtSecret" env:"JWT_SECRET"`
	Issuer    string        `yaml:"issuer" env:"ISSUER"`
	TokenTTL  time.Duration `yaml:"tokenTTL" env:"TOKEN_TTL"`
}

type CryptoConfig struct {
	GiftCardKey string `yaml:"giftCardKey" env:"GIFT_CARD_KEY"`
}

type WalletConfig struct {
	// MaxBalance caps a single top-up, in paise.
	MaxBalance int64 `yaml:"maxBalance" env:"MAX_BALANCE"`
}

type CartConfig struct {
	MaxQuantityPerItem int `yaml:"maxQuantityPerItem" env:"MAX_QUANTITY_PER_ITEM"`
}

type InventoryConfig struct {
	ReservationMinutes int `yaml:"reservationMinutes" env:"RESERVATION_MINUTES"`
}

type CatalogConfig struct {
	CacheTTL time.Duration `yaml:"cacheTTL" env:"CACHE_TTL"`
}

func (c InventoryConfig) ReservationTTL() time.Duration {
	return time.Duration(c.ReservationMinutes) * time.Minute
}

var current atomic.Pointer[Config]

// GetCurrentConfig returns the last loaded config, or the defaults.
func GetCurrentConfig() *Config {
	if c := current.Load(); c != nil {
		return c
	}
	return Defaults()
}

func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:              "order-service",
			Port:              8080,
			LogLevel:          "info",
			LogFormat:         "json",
			ProcessingTimeout: 30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Infra: InfraConfig{
			MySQL:     MySQLConfig{Host: "localhost", Port: 3306, User: "root", Database: "giftify", MaxOpenConns: 20, MaxIdleConns: 5},
			SQLite:    SQLiteConfig{Path: "giftify.db"},
			Redis:     RedisConfig{Addrs: "localhost:6379"},
			Kafka:     KafkaConfig{Brokers: []string{"localhost:9092"}, OrderEventsTopic: "giftify.order-events", ReconciliationTopic: "giftify.reconciliation", ConsumerGroup: "giftify-reconciliation"},
			Jaeger:    JaegerConfig{SampleRatio: 1},
			Nacos:     NacosConfig{Addrs: "localhost:8848", Group: "DEFAULT_GROUP"},
			ZooKeeper: ZooKeeperConfig{Servers: "localhost:2181", SessionTimeout: 5 * time.Second},
		},
		Store:     StoreConfig{Driver: "memory"},
		Auth:      AuthConfig{Issuer: "giftify", TokenTTL: 24 * time.Hour},
		Wallet:    WalletConfig{MaxBalance: 100_000_000},
		Cart:      CartConfig{MaxQuantityPerItem: 10},
		Inventory: InventoryConfig{ReservationMinutes: 10},
		Catalog:   CatalogConfig{CacheTTL: 5 * time.Minute},
	}
}

// LoadConfig reads the YAML file named by GIFTIFY_CONFIG (default
// configs/config.yaml) over the defaults, then applies GIFTIFY_* environment
// overrides. A missing default file is not an error.
func LoadConfig() (*Config, error) {
	path, explicit := os.LookupEnv(configPathEnv)
	if !explicit {
		path = defaultConfigPath
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return nil, err
	}
	current.Store(cfg)
	return cfg, nil
}

func loadConfig(path string, required bool) (*Config, error) {
	cfg := Defaults()

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "mysql", "sqlite", "memory":
	default:
		return fmt.Errorf("config: store.driver must be mysql, sqlite or memory, got %q", c.Store.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwtSecret is required")
	}
	if c.Crypto.GiftCardKey == "" {
		return errors.New("config: crypto.giftCardKey is required")
	}
	if c.Wallet.MaxBalance <= 0 {
		return errors.New("config: wallet.maxBalance must be positive")
	}
	if c.Cart.MaxQuantityPerItem <= 0 {
		return errors.New("config: cart.maxQuantityPerItem must be positive")
	}
	if c.Inventory.ReservationMinutes <= 0 {
		return errors.New("config: inventory.reservationMinutes must be positive")
	}
	if c.App.FeatureFlags.CheckoutLock && c.Infra.ZooKeeper.Servers == "" {
		return errors.New("config: infra.zookeeper.servers is required when the checkout lock is enabled")
	}
	return nil
}
