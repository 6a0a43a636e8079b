package saga

import (
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"giftify/internal/pkg/logger"
	"giftify/internal/service/order/domain"
)

// UserValidationHandler loads the buyer and rejects inactive accounts.
type UserValidationHandler struct {
	NextHandler
}

func (h *UserValidationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.ValidateUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", orderCtx.UserID))

	user, err := orderCtx.Users.FindByID(ctx, orderCtx.UserID)
	if err != nil {
		return fail(span, err, "user lookup failed")
	}
	if !user.IsActive() {
		return fail(span, domain.ErrUserInactive, "user inactive")
	}
	orderCtx.User = user

	return h.executeNext(orderCtx)
}

// CartValidationHandler loads the cart and rejects an empty one.
type CartValidationHandler struct {
	NextHandler
}

func (h *CartValidationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.ValidateCart")
	defer span.End()

	cart, err := orderCtx.Carts.Get(ctx, orderCtx.UserID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return fail(span, domain.ErrEmptyCart, "cart missing")
	}
	if err != nil {
		return fail(span, err, "cart lookup failed")
	}
	if cart.IsEmpty() {
		return fail(span, domain.ErrEmptyCart, "cart empty")
	}
	cart.Recalculate(orderCtx.Now())
	orderCtx.Cart = cart

	span.SetAttributes(
		attribute.Int("cart.lines", len(cart.Items)),
		attribute.Int64("cart.total", cart.TotalAmount),
	)
	logger.Ctx(ctx).Debug().Str("user_id", orderCtx.UserID).Int("lines", len(cart.Items)).Msg("cart loaded for checkout")

	return h.executeNext(orderCtx)
}
