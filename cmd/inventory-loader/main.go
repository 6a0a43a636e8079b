// cmd/inventory-loader/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"gopkg.in/yaml.v3"

	"giftify/internal/pkg/bootstrap"
	"giftify/internal/pkg/logger"
	orderSvc "giftify/internal/service/order"
	"giftify/internal/service/order/domain"
	"giftify/internal/service/order/domain/service"
)

const serviceName = "inventory-loader"

// seedFile is the YAML document loaded by this tool.
type seedFile struct {
	Brands    []seedBrand              `yaml:"brands"`
	GiftCards []service.GiftCardImport `yaml:"giftCards"`
}

type seedBrand struct {
	BrandID     string        `yaml:"brandId"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Category    string        `yaml:"category"`
	LogoURL     string        `yaml:"logoUrl"`
	Variants    []seedVariant `yaml:"variants"`
}

type seedVariant struct {
	VariantID    string `yaml:"variantId"`
	Name         string `yaml:"name"`
	Denomination int64  `yaml:"denomination"`
	Price        int64  `yaml:"price"`
}

func (b seedBrand) toDomain() *domain.Brand {
	brand := &domain.Brand{
		BrandID:     b.BrandID,
		Name:        b.Name,
		Description: b.Description,
		Category:    b.Category,
		LogoURL:     b.LogoURL,
	}
	for _, v := range b.Variants {
		brand.Variants = append(brand.Variants, domain.Variant{
			VariantID:    v.VariantID,
			Name:         v.Name,
			Denomination: v.Denomination,
			Price:        v.Price,
		})
	}
	return brand
}

func main() {
	seedPath := flag.String("seed", "configs/seed.yaml", "YAML file with brands and gift cards to load")
	flag.Parse()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.Init(serviceName, cfg.App.LogLevel, cfg.App.LogFormat)

	if err := run(cfg, *seedPath); err != nil {
		logger.L().Fatal().Err(err).Str("seed", *seedPath).Msg("inventory load failed")
	}
}

func run(cfg *bootstrap.Config, seedPath string) error {
	if cfg.Store.Driver == "memory" {
		return fmt.Errorf("store.driver is memory; point the loader at mysql or sqlite")
	}

	raw, err := os.ReadFile(seedPath)
	if err != nil {
		return err
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse %s: %w", seedPath, err)
	}

	app := &bootstrap.AppCtx{Config: cfg, Tracer: otel.Tracer(serviceName)}
	defer app.Close(cfg.App.ShutdownTimeout)

	repos, err := orderSvc.OpenRepositories(app)
	if err != nil {
		return err
	}
	inventory, err := orderSvc.NewInventoryService(cfg, repos)
	if err != nil {
		return err
	}
	catalog, err := orderSvc.NewCatalogService(app, repos, inventory)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, b := range seed.Brands {
		if err := catalog.UpsertBrand(ctx, b.toDomain()); err != nil {
			return fmt.Errorf("brand %s: %w", b.BrandID, err)
		}
		logger.L().Info().Str("brand_id", b.BrandID).Int("variants", len(b.Variants)).Msg("brand upserted")
	}

	if len(seed.GiftCards) > 0 {
		cards, err := inventory.ImportGiftCards(ctx, seed.GiftCards)
		if err != nil {
			return err
		}
		logger.L().Info().Int("count", len(cards)).Msg("gift cards imported")
	}
	return nil
}
