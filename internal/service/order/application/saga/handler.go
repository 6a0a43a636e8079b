package saga

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"giftify/internal/pkg/logger"
	"giftify/internal/pkg/metrics"
	"giftify/internal/service/order/domain"
	"giftify/internal/service/order/domain/port"
	"giftify/internal/service/order/domain/service"
)

const compensationTimeout = 30 * time.Second

// Dependencies are the stores and services the checkout steps talk to.
type Dependencies struct {
	Users     domain.UserRepository
	Carts     domain.CartRepository
	Orders    domain.OrderRepository
	Catalog   domain.CatalogRepository
	Inventory *service.InventoryService
	Wallet    *service.WalletService
	Publisher port.EventPublisher
	Now       func() time.Time
}

// LineAvailability is the availability verdict for one cart line.
// Preselected holds the ids of the cards seen available; Unavailable is set
// when some or all of the line cannot be delivered.
type LineAvailability struct {
	Item        domain.CartItem
	Preselected []string
	Unavailable *domain.UnavailableItem
}

func (l LineAvailability) AvailableQuantity() int { return len(l.Preselected) }

// Compensation undoes one completed step.
type Compensation struct {
	Step   string
	Amount int64
	Run    func(ctx context.Context) error
}

// OrderContext carries the state of one checkout through the chain.
type OrderContext struct {
	Ctx    context.Context
	Tracer trace.Tracer
	Dependencies

	UserID  string
	OrderID string

	User                   *domain.User
	Cart                   *domain.Cart
	Lines                  []LineAvailability
	TotalAvailableAmount   int64
	TotalUnavailableAmount int64

	// Debited is what left the wallet; Refunded is what already went back.
	Debited           int64
	BalanceAfterDebit int64
	Refunded          int64
	DebitTx           *domain.WalletTransaction
	RefundTx          *domain.WalletTransaction

	Order     *domain.Order
	GiftCards []domain.GiftCardCode

	compensations []Compensation
	compLock      sync.Mutex
}

func NewOrderContext(ctx context.Context, tracer trace.Tracer, deps Dependencies, userID, orderID string) *OrderContext {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &OrderContext{Ctx: ctx, Tracer: tracer, Dependencies: deps, UserID: userID, OrderID: orderID}
}

// AddCompensation pushes onto the stack; compensations run newest first.
func (c *OrderContext) AddCompensation(comp Compensation) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]Compensation{comp}, c.compensations...)
}

func (c *OrderContext) Compensations() int {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	return len(c.compensations)
}

// TriggerCompensation runs every registered compensation once, newest
// first, and returns how many failed. A failure is not retried: it is
// logged as critical, counted, and reported for reconciliation.
func (c *OrderContext) TriggerCompensation(ctx context.Context, cause error) int {
	c.compLock.Lock()
	comps := c.compensations
	c.compensations = nil
	c.compLock.Unlock()

	// detach from the request deadline but stay on the same trace
	compCtx := trace.ContextWithSpanContext(context.Background(), trace.SpanContextFromContext(ctx))
	compCtx, cancel := context.WithTimeout(compCtx, compensationTimeout)
	defer cancel()

	logger.Ctx(ctx).Info().Str("order_id", c.OrderID).Int("count", len(comps)).Msg("executing compensations")

	failed := 0
	for _, comp := range comps {
		stepCtx, span := c.Tracer.Start(compCtx, "saga.compensation."+comp.Step)
		span.SetAttributes(attribute.String("order.id", c.OrderID), attribute.Int64("amount", comp.Amount))
		err := comp.Run(stepCtx)
		if err != nil {
			failed++
			span.RecordError(err, trace.WithAttributes(attribute.Bool("critical.error", true)))
			span.SetStatus(codes.Error, "compensation failed")
			c.reportCompensationFailure(stepCtx, comp, err, cause)
		}
		span.End()
	}
	return failed
}

func (c *OrderContext) reportCompensationFailure(ctx context.Context, comp Compensation, err, cause error) {
	metrics.CompensationFailures.WithLabelValues(comp.Step).Inc()
	logger.Critical(ctx).Err(err).
		Str("order_id", c.OrderID).
		Str("user_id", c.UserID).
		Str("step", comp.Step).
		Int64("amount", comp.Amount).
		Msg("compensation failed, manual reconciliation required")

	if c.Publisher == nil {
		return
	}
	event := domain.ReconciliationRequired{
		OrderID:    c.OrderID,
		UserID:     c.UserID,
		Step:       comp.Step,
		Amount:     comp.Amount,
		Error:      err.Error(),
		OccurredAt: c.Now(),
	}
	if cause != nil {
		event.OriginalErr = cause.Error()
	}
	if pubErr := c.Publisher.PublishReconciliation(ctx, event); pubErr != nil {
		logger.Critical(ctx).Err(pubErr).Str("order_id", c.OrderID).Msg("failed to publish reconciliation event")
	}
}

// Handler is one step of the checkout chain.
type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}

// fail marks span as failed and hands err back.
func fail(span trace.Span, err error, msg string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}
