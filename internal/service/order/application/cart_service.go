package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"giftify/internal/pkg/apperror"
	"giftify/internal/service/order/domain"
)

const DefaultMaxQuantityPerItem = 10

type CartService struct {
	carts              domain.CartRepository
	catalog            domain.CatalogRepository
	maxQuantityPerItem int
	now                func() time.Time
	tracer             trace.Tracer
}

func NewCartService(carts domain.CartRepository, catalog domain.CatalogRepository, maxQuantityPerItem int, tracer trace.Tracer) *CartService {
	if maxQuantityPerItem <= 0 {
		maxQuantityPerItem = DefaultMaxQuantityPerItem
	}
	return &CartService{carts: carts, catalog: catalog, maxQuantityPerItem: maxQuantityPerItem, now: time.Now, tracer: tracer}
}

func (s *CartService) load(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return domain.NewCart(userID, s.now()), nil
	}
	if err != nil {
		return nil, apperror.From(err, "CART_LOOKUP_FAILED", "Failed to load cart")
	}
	return cart, nil
}

func (s *CartService) save(ctx context.Context, cart *domain.Cart) (*CartView, error) {
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, apperror.From(err, "CART_UPDATE_FAILED", "Failed to update cart")
	}
	return buildCartView(cart), nil
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*CartView, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetCart")
	defer span.End()

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildCartView(cart), nil
}

// AddItem adds quantity of an active variant, merging with an existing line.
func (s *CartService) AddItem(ctx context.Context, userID, variantID string, quantity int) (*CartView, error) {
	ctx, span := s.tracer.Start(ctx, "app.AddCartItem")
	defer span.End()
	span.SetAttributes(attribute.String("variant.id", variantID), attribute.Int("quantity", quantity))

	if quantity < 1 || quantity > s.maxQuantityPerItem {
		return nil, domain.ErrInvalidQuantity.WithMessage("Quantity must be between 1 and %d", s.maxQuantityPerItem)
	}
	variant, err := s.catalog.FindVariant(ctx, variantID)
	if err != nil {
		return nil, apperror.From(err, "CART_UPDATE_FAILED", "Failed to update cart")
	}
	if !variant.IsActive() {
		return nil, domain.ErrVariantInactive
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing, ok := cart.Find(variantID); ok && existing.Quantity+quantity > s.maxQuantityPerItem {
		return nil, domain.ErrInvalidQuantity.WithMessage("At most %d of one gift card per order", s.maxQuantityPerItem)
	}
	cart.Add(*variant, quantity, s.now())
	return s.save(ctx, cart)
}

// UpdateItem sets a line's quantity; zero removes it.
func (s *CartService) UpdateItem(ctx context.Context, userID, variantID string, quantity int) (*CartView, error) {
	ctx, span := s.tracer.Start(ctx, "app.UpdateCartItem")
	defer span.End()

	if quantity < 0 || quantity > s.maxQuantityPerItem {
		return nil, domain.ErrInvalidQuantity.WithMessage("Quantity must be between 0 and %d", s.maxQuantityPerItem)
	}
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := cart.SetQuantity(variantID, quantity, s.now()); err != nil {
		return nil, err
	}
	return s.save(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, variantID string) (*CartView, error) {
	ctx, span := s.tracer.Start(ctx, "app.RemoveCartItem")
	defer span.End()

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := cart.Remove(variantID, s.now()); err != nil {
		return nil, err
	}
	return s.save(ctx, cart)
}

func (s *CartService) ClearCart(ctx context.Context, userID string) (*CartView, error) {
	ctx, span := s.tracer.Start(ctx, "app.ClearCart")
	defer span.End()

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Clear(s.now())
	return s.save(ctx, cart)
}
