// internal/service/order/application/service.go
package application

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"giftify/internal/pkg/apperror"
	"giftify/internal/pkg/logger"
	"giftify/internal/pkg/metrics"
	"giftify/internal/pkg/money"
	"giftify/internal/service/order/application/saga"
	"giftify/internal/service/order/domain"
	"giftify/internal/service/order/domain/port"
)

const (
	defaultListLimit = 20
	// MaxListLimit caps a single page of orders or transactions.
	MaxListLimit = 100
)

func pageSize(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}

// OrderApplicationService orchestrates checkout, cancellation and the order
// read side.
type OrderApplicationService struct {
	deps              saga.Dependencies
	locker            port.CheckoutLocker
	processingTimeout time.Duration
	tracer            trace.Tracer
}

// NewOrderApplicationService wires the service. locker may be nil when
// checkouts of one user need not be serialised.
func NewOrderApplicationService(deps saga.Dependencies, locker port.CheckoutLocker, processingTimeout time.Duration, tracer trace.Tracer) *OrderApplicationService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if processingTimeout <= 0 {
		processingTimeout = 30 * time.Second
	}
	return &OrderApplicationService{deps: deps, locker: locker, processingTimeout: processingTimeout, tracer: tracer}
}

// CreateOrder converts the user's cart into an order. Partial availability
// is a success; any failure after money moved is compensated before the
// error is returned.
func (s *OrderApplicationService) CreateOrder(ctx context.Context, userID string) (*OrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() { metrics.CheckoutDuration.Observe(time.Since(start).Seconds()) }()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, userID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "checkout lock failed")
			return nil, domain.ErrOrderCreationFailed.Because(err)
		}
		defer unlock()
	}

	processingCtx, cancel := context.WithTimeout(ctx, s.processingTimeout)
	defer cancel()

	orderCtx := saga.NewOrderContext(processingCtx, s.tracer, s.deps, userID, domain.NewOrderID())
	span.SetAttributes(attribute.String("order.id", orderCtx.OrderID))
	logger.Ctx(ctx).Info().Str("order_id", orderCtx.OrderID).Str("user_id", userID).Msg("starting checkout")

	if err := s.buildChain().Handle(orderCtx); err != nil {
		return nil, s.handleOrderCreationFailure(ctx, orderCtx, err)
	}

	metrics.OrdersCreated.WithLabelValues(string(orderCtx.Order.Status)).Inc()
	span.AddEvent("order created", trace.WithAttributes(attribute.String("order.status", string(orderCtx.Order.Status))))
	return BuildOrderResponse(orderCtx.Order, orderCtx.GiftCards), nil
}

func (s *OrderApplicationService) handleOrderCreationFailure(ctx context.Context, orderCtx *saga.OrderContext, err error) error {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, "order processing failed in chain")

	appErr := apperror.From(err, domain.ErrOrderCreationFailed.Code, domain.ErrOrderCreationFailed.Message)
	metrics.OrderCreationFailures.WithLabelValues(appErr.Code).Inc()

	if orderCtx.Compensations() == 0 {
		logger.Ctx(ctx).Info().Str("user_id", orderCtx.UserID).Str("code", appErr.Code).Msg("checkout rejected")
		return appErr
	}

	logger.Ctx(ctx).Error().Err(err).
		Str("order_id", orderCtx.OrderID).
		Str("user_id", orderCtx.UserID).
		Msg("checkout failed, compensating")

	if failed := orderCtx.TriggerCompensation(ctx, err); failed > 0 {
		span.SetAttributes(attribute.Int("compensation.failures", failed))
	}

	// a cancellation that won the race already published its own event
	if orderCtx.Order != nil && orderCtx.Order.Status != domain.StateCancelled && s.deps.Publisher != nil {
		event := domain.NewOrderEvent(domain.EventOrderFailed, orderCtx.Order, appErr.Message, s.deps.Now())
		if pubErr := s.deps.Publisher.PublishOrderEvent(ctx, event); pubErr != nil {
			logger.Ctx(ctx).Warn().Err(pubErr).Str("order_id", orderCtx.OrderID).Msg("failed to publish order failure event")
		}
	}
	return appErr
}

func (s *OrderApplicationService) buildChain() saga.Handler {
	chain := new(saga.UserValidationHandler)
	chain.
		SetNext(new(saga.CartValidationHandler)).
		SetNext(new(saga.AvailabilityHandler)).
		SetNext(new(saga.BalanceCheckHandler)).
		SetNext(new(saga.WalletDebitHandler)).
		SetNext(new(saga.CreateOrderHandler)).
		SetNext(new(saga.RecordPaymentHandler)).
		SetNext(new(saga.AllocationHandler)).
		SetNext(new(saga.RefundHandler)).
		SetNext(new(saga.DeliveryHandler)).
		SetNext(new(saga.ClearCartHandler)).
		SetNext(new(saga.FinalizeHandler)).
		SetNext(new(saga.NotificationHandler))
	return chain
}

// GetOrder returns one of the user's orders, with decrypted codes once it
// has been delivered.
func (s *OrderApplicationService) GetOrder(ctx context.Context, orderID, userID string) (*OrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetOrder")
	defer span.End()

	order, err := s.ownedOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	var giftCards []domain.GiftCardCode
	if order.IsDelivered() {
		giftCards, err = s.deps.Inventory.GetGiftCardDetails(ctx, order.GiftCardIDs())
		if err != nil {
			span.RecordError(err)
			return nil, apperror.From(err, "ORDER_LOOKUP_FAILED", "Failed to load order")
		}
	}
	return BuildOrderResponse(order, giftCards), nil
}

func (s *OrderApplicationService) ListOrders(ctx context.Context, userID string, limit int) ([]OrderSummary, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListOrders")
	defer span.End()

	limit = pageSize(limit)
	orders, err := s.deps.Orders.ListByUser(ctx, userID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.From(err, "ORDER_LOOKUP_FAILED", "Failed to load orders")
	}
	out := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, buildOrderSummary(o))
	}
	return out, nil
}

// CancelOrder refunds the full paid amount and returns the order's cards to
// stock.
func (s *OrderApplicationService) CancelOrder(ctx context.Context, orderID, userID string) (*CancelOrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.CancelOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("user.id", userID))

	order, err := s.ownedOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Cancellable() {
		return nil, domain.ErrCannotCancel.WithMessage("Order cannot be cancelled in status %s", order.Status)
	}
	if order.PaidAmount <= 0 {
		return nil, domain.ErrInvalidRefundAmount
	}

	tx, err := s.deps.Wallet.Refund(ctx, userID, order.PaidAmount, orderID,
		fmt.Sprintf("Refund for cancelled order %s", orderID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancellation refund failed")
		return nil, apperror.From(err, domain.ErrCancellationFailed.Code, domain.ErrCancellationFailed.Message)
	}

	expected := order.Status
	if err := order.Cancel(s.deps.Now()); err != nil {
		s.reverseRefund(ctx, order, tx)
		return nil, apperror.From(err, domain.ErrCancellationFailed.Code, domain.ErrCancellationFailed.Message)
	}
	ok, err := s.deps.Orders.UpdateIfStatus(ctx, order, expected)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled order not persisted")
		s.reverseRefund(ctx, order, tx)
		return nil, domain.ErrCancellationFailed.Because(err)
	}
	if !ok {
		// another request settled the order after it was read
		s.reverseRefund(ctx, order, tx)
		return nil, domain.ErrCannotCancel.WithMessage("Order %s was already settled by another request", orderID)
	}

	if n, err := s.deps.Inventory.ReleaseGiftCards(ctx, orderID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Int("released", n).Msg("failed to release gift cards of cancelled order")
	}
	if _, err := s.deps.Inventory.ReleaseReservations(ctx, orderID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Msg("failed to release reservations of cancelled order")
	}

	metrics.OrdersCancelled.Inc()
	if s.deps.Publisher != nil {
		event := domain.NewOrderEvent(domain.EventOrderCancelled, order, "cancelled by user", s.deps.Now())
		if err := s.deps.Publisher.PublishOrderEvent(ctx, event); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Msg("failed to publish order cancelled event")
		}
	}

	return &CancelOrderResponse{
		OrderID:       order.OrderID,
		Status:        order.Status,
		RefundAmount:  NewAmount(order.RefundAmount),
		TransactionID: tx.TransactionID,
		WalletBalance: NewAmount(tx.BalanceAfter),
		Message:       fmt.Sprintf("Order cancelled. %s has been refunded to your wallet", money.Format(order.RefundAmount)),
	}, nil
}

// reverseRefund takes back a cancellation refund whose order could not be
// cancelled and marks its ledger entry FAILED. If the money cannot be taken
// back the entry stays COMPLETED and an operator is alerted.
func (s *OrderApplicationService) reverseRefund(ctx context.Context, order *domain.Order, tx *domain.WalletTransaction) {
	if _, err := s.deps.Wallet.Debit(ctx, tx.UserID, tx.Amount); err != nil {
		metrics.CompensationFailures.WithLabelValues("reverse_cancellation_refund").Inc()
		logger.Critical(ctx).Err(err).
			Str("order_id", order.OrderID).
			Str("transaction_id", tx.TransactionID).
			Int64("amount", tx.Amount).
			Msg("cancellation refund could not be reversed, manual reconciliation required")
		if s.deps.Publisher != nil {
			_ = s.deps.Publisher.PublishReconciliation(ctx, domain.ReconciliationRequired{
				OrderID:    order.OrderID,
				UserID:     tx.UserID,
				Step:       "reverse_cancellation_refund",
				Amount:     tx.Amount,
				Error:      err.Error(),
				OccurredAt: s.deps.Now(),
			})
		}
		return
	}
	s.deps.Wallet.MarkFailed(ctx, tx)
}

func (s *OrderApplicationService) ownedOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	order, err := s.deps.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, apperror.From(err, "ORDER_LOOKUP_FAILED", "Failed to load order")
	}
	if order.UserID != userID {
		return nil, domain.ErrOrderAccessDenied
	}
	return order, nil
}
