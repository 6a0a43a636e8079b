// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "giftify"

var (
	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Orders created, by final status.",
	}, []string{"status"})

	OrderCreationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_creation_failures_total",
		Help:      "Checkout attempts rejected or failed, by error code.",
	}, []string{"code"})

	OrdersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_cancelled_total",
		Help:      "Orders cancelled and refunded.",
	})

	CompensationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "compensation_failures_total",
		Help:      "Compensating actions that failed and need manual reconciliation.",
	}, []string{"step"})

	GiftCardClaimConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "giftcard_claim_conflicts_total",
		Help:      "Conditional gift-card writes lost to a concurrent writer.",
	}, []string{"operation"})

	WalletOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wallet_operations_total",
		Help:      "Wallet ledger entries written, by type and status.",
	}, []string{"type", "status"})

	CheckoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "End-to-end duration of the order creation workflow.",
		Buckets:   prometheus.DefBuckets,
	})

	BrandCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "brand_cache_lookups_total",
		Help:      "Brand list cache lookups, by result.",
	}, []string{"result"})
)
