package saga

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"giftify/internal/pkg/money"
	"giftify/internal/service/order/domain"
)

// BalanceCheckHandler rejects checkouts the wallet cannot cover. The full
// cart total is charged, unavailable lines are refunded afterwards.
type BalanceCheckHandler struct {
	NextHandler
}

func (h *BalanceCheckHandler) Handle(orderCtx *OrderContext) error {
	_, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CheckBalance")
	defer span.End()

	required := orderCtx.Cart.TotalAmount
	span.SetAttributes(
		attribute.Int64("wallet.balance", orderCtx.User.WalletBalance),
		attribute.Int64("amount.required", required),
	)
	if orderCtx.User.WalletBalance < required {
		err := domain.ErrInsufficientBalance.WithMessage(
			"Insufficient wallet balance. Required: %s, Available: %s",
			money.Format(required), money.Format(orderCtx.User.WalletBalance))
		return fail(span, err, "insufficient balance")
	}

	return h.executeNext(orderCtx)
}

// WalletDebitHandler takes the cart total out of the wallet. From here on a
// failure refunds whatever has not been refunded yet.
type WalletDebitHandler struct {
	NextHandler
}

func (h *WalletDebitHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.DebitWallet")
	defer span.End()

	amount := orderCtx.Cart.TotalAmount
	balance, err := orderCtx.Wallet.Debit(ctx, orderCtx.UserID, amount)
	if err != nil {
		return fail(span, err, "wallet debit failed")
	}
	orderCtx.Debited = amount
	orderCtx.BalanceAfterDebit = balance
	span.AddEvent("wallet debited", attributeAmount(amount))

	orderCtx.AddCompensation(Compensation{
		Step:   "refund_payment",
		Amount: amount,
		Run: func(compCtx context.Context) error {
			outstanding := orderCtx.Debited - orderCtx.Refunded
			if outstanding <= 0 {
				return nil
			}
			if cancelled, err := cancelledElsewhere(compCtx, orderCtx); err != nil || cancelled {
				return err
			}
			_, err := orderCtx.Wallet.Refund(compCtx, orderCtx.UserID, outstanding, orderCtx.OrderID,
				fmt.Sprintf("Refund for failed order %s", orderCtx.OrderID))
			if err == nil {
				orderCtx.Refunded += outstanding
			}
			return err
		},
	})

	return h.executeNext(orderCtx)
}

// RecordPaymentHandler appends the DEBIT ledger entry once the order exists.
type RecordPaymentHandler struct {
	NextHandler
}

func (h *RecordPaymentHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.RecordPayment")
	defer span.End()

	tx, err := orderCtx.Wallet.RecordDebit(ctx, orderCtx.UserID, orderCtx.Debited, orderCtx.BalanceAfterDebit,
		orderCtx.OrderID, fmt.Sprintf("Payment for order %s", orderCtx.OrderID))
	if err != nil {
		return fail(span, err, "debit transaction failed")
	}
	orderCtx.DebitTx = tx
	span.SetAttributes(attribute.String("transaction.id", tx.TransactionID))

	return h.executeNext(orderCtx)
}

// RefundHandler returns the price of unavailable lines to the wallet.
type RefundHandler struct {
	NextHandler
}

func (h *RefundHandler) Handle(orderCtx *OrderContext) error {
	amount := orderCtx.TotalUnavailableAmount
	if amount <= 0 {
		return h.executeNext(orderCtx)
	}

	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.RefundUnavailable")
	defer span.End()

	tx, err := orderCtx.Wallet.Refund(ctx, orderCtx.UserID, amount, orderCtx.OrderID,
		fmt.Sprintf("Refund for unavailable items in order %s", orderCtx.OrderID))
	if err != nil {
		return fail(span, err, "partial refund failed")
	}
	orderCtx.Refunded += amount
	orderCtx.RefundTx = tx
	span.AddEvent("unavailable items refunded", attributeAmount(amount))

	return h.executeNext(orderCtx)
}
