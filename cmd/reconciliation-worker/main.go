// cmd/reconciliation-worker/main.go
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"giftify/internal/pkg/bootstrap"
	"giftify/internal/pkg/logger"
	"giftify/internal/pkg/mq"
	"giftify/internal/service/order/interfaces"
)

const serviceName = "reconciliation-worker"

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// shares configs/config.yaml with order-service; set GIFTIFY_APP_PORT when both run on one host
	cfg.App.Name = serviceName

	if err := bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Config:      cfg,
		Build:       build,
	}); err != nil {
		log.Fatalf("%s exited: %v", serviceName, err)
	}
}

// build starts the reconciliation consumer and returns the probe endpoints.
func build(app *bootstrap.AppCtx) (http.Handler, error) {
	kc := app.Config.Infra.Kafka
	if !kc.Enabled {
		logger.L().Warn().Msg("kafka is disabled; reconciliation requests are only logged by order-service")
	} else {
		reader := mq.NewKafkaReader(kc.Brokers, kc.ReconciliationTopic, kc.ConsumerGroup)
		consumer := interfaces.NewReconciliationConsumer(reader, app.Tracer)
		consumer.Start(context.Background())
		app.OnShutdown("reconciliation consumer", func(context.Context) error { return consumer.Stop() })
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())
	return r, nil
}
