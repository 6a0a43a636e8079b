// cmd/order-service/main.go
package main

import (
	"log"

	"giftify/internal/pkg/bootstrap"
	orderSvc "giftify/internal/service/order"
)

const serviceName = "order-service"

// main is the composition root: it loads configuration and hands the wiring
// to the shared bootstrap.
func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.App.Name == "" {
		cfg.App.Name = serviceName
	}

	if err := bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: cfg.App.Name,
		Config:      cfg,
		Build:       orderSvc.NewHTTPHandler,
	}); err != nil {
		log.Fatalf("%s exited: %v", cfg.App.Name, err)
	}
}
