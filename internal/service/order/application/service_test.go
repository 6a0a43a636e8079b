package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"giftify/internal/pkg/cipher"
	"giftify/internal/service/order/application/saga"
	"giftify/internal/service/order/domain"
	"giftify/internal/service/order/domain/service"
	"giftify/internal/service/order/infrastructure/memory"
)

var tracer = noop.NewTracerProvider().Tracer("test")

type recordingPublisher struct {
	mu              sync.Mutex
	events          []domain.OrderEvent
	reconciliations []domain.ReconciliationRequired
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, e domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) PublishReconciliation(_ context.Context, e domain.ReconciliationRequired) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reconciliations = append(p.reconciliations, e)
	return nil
}

// failingGiftCards errors on every allocation attempt.
type failingGiftCards struct {
	domain.GiftCardRepository
}

func (failingGiftCards) TryMarkUsed(context.Context, string, string, string, time.Time) (bool, error) {
	return false, errors.New("store unavailable")
}

// noCreditUsers rejects wallet credits.
type noCreditUsers struct {
	domain.UserRepository
}

func (r noCreditUsers) AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	if delta > 0 {
		return 0, errors.New("store unavailable")
	}
	return r.UserRepository.AdjustBalance(ctx, userID, delta)
}

// slowOrders widens the window between reading an order and writing it back.
type slowOrders struct {
	domain.OrderRepository
	delay time.Duration
}

func (r slowOrders) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	time.Sleep(r.delay)
	return r.OrderRepository.FindByID(ctx, orderID)
}

// breakableOrders fails conditional order writes once broken is set.
type breakableOrders struct {
	domain.OrderRepository
	broken *atomic.Bool
}

func (r breakableOrders) UpdateIfStatus(ctx context.Context, order *domain.Order, expected domain.State) (bool, error) {
	if r.broken.Load() {
		return false, errors.New("store unavailable")
	}
	return r.OrderRepository.UpdateIfStatus(ctx, order, expected)
}

// interceptedOrders runs beforeSettle once, just before a checkout writes its
// final status.
type interceptedOrders struct {
	domain.OrderRepository
	once         sync.Once
	beforeSettle func(order *domain.Order)
}

func (r *interceptedOrders) UpdateIfStatus(ctx context.Context, order *domain.Order, expected domain.State) (bool, error) {
	if expected == domain.StateProcessing &&
		(order.Status == domain.StateFulfilled || order.Status == domain.StatePartiallyFulfilled) {
		r.once.Do(func() { r.beforeSettle(order) })
	}
	return r.OrderRepository.UpdateIfStatus(ctx, order, expected)
}

type harness struct {
	store     *memory.Store
	inventory *service.InventoryService
	wallet    *service.WalletService
	orders    *OrderApplicationService
	carts     *CartService
	publisher *recordingPublisher
}

type harnessRepos struct {
	users  domain.UserRepository
	cards  domain.GiftCardRepository
	orders domain.OrderRepository
}

type harnessOption func(r *harnessRepos)

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	store := memory.NewStore()
	box, err := cipher.NewBox("order-test-key")
	require.NoError(t, err)

	repos := harnessRepos{users: store.Users(), cards: store.GiftCards(), orders: store.Orders()}
	for _, opt := range opts {
		opt(&repos)
	}

	inventory := service.NewInventoryService(repos.cards, box, 10*time.Minute)
	wallet := service.NewWalletService(repos.users, store.Transactions(), 0)
	publisher := &recordingPublisher{}
	deps := saga.Dependencies{
		Users:     repos.users,
		Carts:     store.Carts(),
		Orders:    repos.orders,
		Catalog:   store.Catalog(),
		Inventory: inventory,
		Wallet:    wallet,
		Publisher: publisher,
	}

	h := &harness{
		store:     store,
		inventory: inventory,
		wallet:    wallet,
		orders:    NewOrderApplicationService(deps, nil, 5*time.Second, tracer),
		carts:     NewCartService(store.Carts(), store.Catalog(), 10, tracer),
		publisher: publisher,
	}
	require.NoError(t, store.Catalog().UpsertBrand(context.Background(), &domain.Brand{
		BrandID: "amazon",
		Name:    "Amazon",
		Status:  domain.CatalogActive,
		Variants: []domain.Variant{
			{VariantID: "amz-15", Name: "₹15", Denomination: 1500, Price: 1500, Status: domain.CatalogActive},
			{VariantID: "amz-10", Name: "₹10", Denomination: 1000, Price: 1000, Status: domain.CatalogActive},
			{VariantID: "amz-old", Name: "₹5", Denomination: 500, Price: 500, Status: domain.CatalogInactive},
		},
	}))
	return h
}

func (h *harness) user(t *testing.T, balance int64) *domain.User {
	t.Helper()
	u := domain.NewUser(fmt.Sprintf("user-%d@example.com", time.Now().UnixNano()), "hash", "Test", "User", time.Now())
	u.WalletBalance = balance
	require.NoError(t, h.store.Users().Create(context.Background(), u))
	return u
}

func (h *harness) stock(t *testing.T, variantID string, n int) {
	t.Helper()
	items := make([]service.GiftCardImport, n)
	for i := range items {
		items[i] = service.GiftCardImport{
			ProductID:    "amazon",
			VariantID:    variantID,
			Denomination: 1500,
			Number:       fmt.Sprintf("%s-%d-%d", variantID, time.Now().UnixNano(), i),
			Pin:          "1234",
			ExpiryTime:   time.Now().Add(90 * 24 * time.Hour),
		}
	}
	_, err := h.inventory.ImportGiftCards(context.Background(), items)
	require.NoError(t, err)
}

func (h *harness) addToCart(t *testing.T, userID, variantID string, qty int) {
	t.Helper()
	_, err := h.carts.AddItem(context.Background(), userID, variantID, qty)
	require.NoError(t, err)
}

func (h *harness) balance(t *testing.T, userID string) int64 {
	t.Helper()
	b, err := h.wallet.Balance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func (h *harness) transactions(t *testing.T, userID string, typ domain.TransactionType) []*domain.WalletTransaction {
	t.Helper()
	all, err := h.store.Transactions().ListByUser(context.Background(), userID, 0)
	require.NoError(t, err)
	var out []*domain.WalletTransaction
	for _, tx := range all {
		if tx.Type == typ {
			out = append(out, tx)
		}
	}
	return out
}

func (h *harness) storedOrder(t *testing.T, orderID string) *domain.Order {
	t.Helper()
	o, err := h.store.Orders().FindByID(context.Background(), orderID)
	require.NoError(t, err)
	return o
}

func requireOrderInvariants(t *testing.T, o *domain.Order) {
	t.Helper()
	require.Equal(t, o.TotalAmount, o.PaidAmount)
	var refunded int64
	for _, it := range o.Items {
		refunded += it.RefundedPrice
		require.Equal(t, it.TotalPrice, it.FulfilledPrice+it.RefundedPrice)
	}
	require.Equal(t, refunded, o.RefundAmount)
}

func TestCreateOrderFulfilled(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t, 5000)
	h.stock(t, "amz-15", 3)
	h.addToCart(t, u.UserID, "amz-15", 2)

	resp, err := h.orders.CreateOrder(ctx, u.UserID)
	require.NoError(t, err)

	require.Equal(t, domain.StateFulfilled, resp.Status)
	require.EqualValues(t, 3000, resp.TotalAmount.Paise)
	require.Equal(t, "₹30.00", resp.TotalAmount.Formatted)
	require.Len(t, resp.GiftCards, 2)
	require.Equal(t, "1234", resp.GiftCards[0].GiftCardPin)
	require.Empty(t, resp.UnavailableItems)
	require.False(t, resp.Fulfillment.IsPartial)

	require.EqualValues(t, 2000, h.balance(t, u.UserID))
	debits := h.transactions(t, u.UserID, domain.TransactionDebit)
	require.Len(t, debits, 1)
	require.EqualValues(t, 3000, debits[0].Amount)
	require.Equal(t, resp.OrderID, debits[0].OrderID)
	require.Empty(t, h.transactions(t, u.UserID, domain.TransactionRefund))

	cart, err := h.store.Carts().Get(ctx, u.UserID)
	require.NoError(t, err)
	require.True(t, cart.IsEmpty())

	stored := h.storedOrder(t, resp.OrderID)
	requireOrderInvariants(t, stored)
	used, err := h.store.GiftCards().ListUsedByOrder(ctx, resp.OrderID)
	require.NoError(t, err)
	require.Len(t, used, 2)

	require.Len(t, h.publisher.events, 1)
	require.Equal(t, domain.EventOrderCompleted, h.publisher.events[0].Type)
}

func TestCreateOrderPartiallyFulfilled(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t, 5000)
	h.stock(t, "amz-15", 1)
	h.addToCart(t, u.UserID, "amz-15", 2)

	resp, err := h.orders.CreateOrder(ctx, u.UserID)
	require.NoError(t, err)

	require.Equal(t, domain.StatePartiallyFulfilled, resp.Status)
	require.EqualValues(t, 1500, resp.RefundAmount.Paise)
	require.True(t, resp.Fulfillment.IsPartial)
	require.Len(t, resp.GiftCards, 1)
	require.Len(t, resp.UnavailableItems, 1)
	require.Equal(t, "Only 1 gift card(s) available", resp.UnavailableItems[0].Reason)

	refunds := h.transactions(t, u.UserID, domain.TransactionRefund)
	require.Len(t, refunds, 1)
	require.EqualValues(t, 1500, refunds[0].Amount)
	require.EqualValues(t, 5000-3000+1500, h.balance(t, u.UserID))
	requireOrderInvariants(t, h.storedOrder(t, resp.OrderID))
}

func TestCreateOrderInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t, 1000)
	h.stock(t, "amz-15", 3)
	h.addToCart(t, u.UserID, "amz-15", 2)

	_, err := h.orders.CreateOrder(ctx, u.UserID)
	require.True(t, errors.Is(err, domain.ErrInsufficientBalance))

	require.EqualValues(t, 1000, h.balance(t, u.UserID))
	all, err := h.store.Transactions().ListByUser(ctx, u.UserID, 0)
	require.NoError(t, err)
	require.Empty(t, all)

	cart, err := h.store.Carts().Get(ctx, u.UserID)
	require.NoError(t, err)
	require.Equal(t, 2, cart.TotalItems)
	require.EqualValues(t, 3000, cart.TotalAmount)
}

func TestCreateOrderRejections(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.orders.CreateOrder(ctx, "nobody")
	require.True(t, errors.Is(err, domain.ErrUserNotFound))

	u := h.user(t, 5000)
	_, err = h.orders.CreateOrder(ctx, u.UserID)
	require.True(t, errors.Is(err, domain.ErrEmptyCart))

	h.addToCart(t, u.UserID, "amz-15", 1)
	_, err = h.orders.CreateOrder(ctx, u.UserID)
	require.True(t, errors.Is(err, domain.ErrNoItemsAvailable))
	require.EqualValues(t, 5000, h.balance(t, u.UserID))

	require.NoError(t, h.store.Users().UpdateStatus(ctx, u.UserID, domain.UserSuspended))
	_, err = h.orders.CreateOrder(ctx, u.UserID)
	require.True(t, errors.Is(err, domain.ErrUserInactive))
}

func TestCreateOrderRefundsInactiveVariantLines(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t, 5000)
	h.stock(t, "amz-15", 1)
	h.addToCart(t, u.UserID, "amz-15", 1)
	h.addToCart(t, u.UserID, "amz-10", 1)

	// amz-10 is retired after it was put in the cart
	require.NoError(t, h.store.Catalog().UpsertBrand(ctx, &domain.Brand{
		BrandID: "amazon", Name: "Amazon", Status: domain.CatalogActive,
		Variants: []domain.Variant{
			{VariantID: "amz-15", Name: "₹15", Denomination: 1500, Price: 1500, Status: domain.CatalogActive},
			{VariantID: "amz-10", Name: "₹10", Denomination: 1000, Price: 1000, Status: domain.CatalogInactive},
		},
	}))

	resp, err := h.orders.CreateOrder(ctx, u.UserID)
	require.NoError(t, err)
	require.Equal(t, domain.StatePartiallyFulfilled, resp.Status)
	require.Len(t, resp.UnavailableItems, 1)
	require.Equal(t, "Product variant is no longer available", resp.UnavailableItems[0].Reason)
	require.EqualValues(t, 1000, resp.RefundAmount.Paise)
	require.EqualValues(t, 5000-1500, h.balance(t, u.UserID))
}

func TestCancelPartiallyFulfilledOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t, 5000)
	h.stock(t, "amz-15", 1)
	h.addToCart(t, u.UserID, "amz-15", 2)

	created, err := h.orders.CreateOrder(ctx, u.UserID)
	require.NoError(t, err)
	require.Equal(t, domain.StatePartiallyFulfilled, created.Status)
	before := h.balance(t, u.UserID)
	refundsBefore := len(h.transactions(t, u.UserID, domain.TransactionRefund))

	resp, err := h.orders.CancelOrder(ctx, created.OrderID, u.UserID)
	require.NoError(t, err)
	require.Equal(t, domain.StateCancelled, resp.Status)
	require.EqualValues(t, 3000, resp.RefundAmount.Paise)

	require.Equal(t, before+3000, h.balance(t, u.UserID))
	require.Len(t, h.transactions(t, u.UserID, domain.TransactionRefund), refundsBefore+1)

	stored := h.storedOrder(t, created.OrderID)
	require.Equal(t, domain.StateCancelled, stored.Status)
	require.Equal(t, stored.PaidAmount, stored.RefundAmount)
	requireOrderInvariants(t, stored)

	n, err := h.inventory.CountAvailable(ctx, "amz-15")
	require.NoError(t, err)
	require.Equal(t, 1, n, "allocated card is back in stock")
}

func TestCancelFulfilledOrderIsRejected(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t, 5000)
	h.stock(t, "amz-15", 2)
	h.addToCart(t, u.UserID, "amz-15", 2)

	created, err := h.orders.CreateOrder(ctx, u.UserID)
	require.NoError(t, err)
	balance := h.balance(t, u.UserID)

	_, err = h.orders.CancelOrder(ctx, created.OrderID, u.UserID)
	require.True(t, errors.Is(err, domain.ErrCannotCancel))

	require.Equal(t, balance, h.balance(t, u.UserID))
	require.Equal(t, domain.StateFulfilled, h.storedOrder(t, created.OrderID).Status)
	require.Empty(t, h.transactions(t, u.UserID, domain.TransactionRefund))
}

func TestOrderOwnership(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.user(t, 5000)
	other := h.user(t, 5000)
	h.stock(t, "amz-15", 1)
	h.addToCart(t, owner.UserID, "amz-15", 1)

	created, err := h.orders.CreateOrder(ctx, owner.UserID)
	require.NoError(t, err)

	_, err = h.orders.GetOrder(ctx, created.OrderID, other.UserID)
	require.True(t, errors.Is(err, domain.ErrOrderAccessDenied))
	_, err = h.orders.CancelOrder(ctx, created.OrderID, other.UserID)
	require.True(t, errors.Is(err, domain.ErrOrderAccessDenied))
	_, err = h.orders.GetOrder(ctx, "missing", owner.UserID)
	require.True(t, errors.Is(err, domain.ErrOrderNotFound))

	got, err := h.orders.GetOrder(ctx, created.OrderID, owner.UserID)
	require.NoError(t, err)
	require.Len(t, got.GiftCards, 1)

	list, err := h.orders.ListOrders(ctx, owner.UserID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, created.OrderID, list[0].OrderID)
}

func TestAllocationFailureIsCompensated(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, func(r *harnessRepos) {
		r.cards = failingGiftCards{r.cards}
	})
	u := h.user(t, 5000)
	h.stock(t, "amz-15", 2)
	h.addToCart(t, u.UserID, "amz-15", 2)

	_, err := h.orders.CreateOrder(ctx, u.UserID)
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrOrderCreationFailed))

	require.EqualValues(t, 5000, h.balance(t, u.UserID))
	require.Len(t, h.transactions(t, u.UserID, domain.TransactionDebit), 1)
	refunds := h.transactions(t, u.UserID, domain.TransactionRefund)
	require.Len(t, refunds, 1)
	require.EqualValues(t, 3000, refunds[0].Amount)

	orders, err := h.store.Orders().ListByUser(ctx, u.UserID, 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, domain.StateFailed, orders[0].Status)
	requireOrderInvariants(t, orders[0])

	n, err := h.inventory.CountAvailable(ctx, "amz-15")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	cart, err := h.store.Carts().Get(ctx, u.UserID)
	require.NoError(t, err)
	require.False(t, cart.IsEmpty(), "a failed checkout keeps the cart")
	require.Empty(t, h.publisher.reconciliations)
}

func TestFailedCompensationIsReported(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, func(r *harnessRepos) {
		r.users = noCreditUsers{r.users}
		r.cards = failingGiftCards{r.cards}
	})
	u := h.user(t, 5000)
	h.stock(t, "amz-15", 1)
	h.addToCart(t, u.UserID, "amz-15", 1)

	_, err := h.orders.CreateOrder(ctx, u.UserID)
	require.Error(t, err)

	require.Len(t, h.publisher.reconciliations, 1)
	rec := h.publisher.reconciliations[0]
	require.Equal(t, "refund_payment", rec.Step)
	require.EqualValues(t, 1500, rec.Amount)
	require.Equal(t, u.UserID, rec.UserID)

	refunds := h.transactions(t, u.UserID, domain.TransactionRefund)
	require.Len(t, refunds, 1)
	require.Equal(t, domain.TransactionFailed, refunds[0].Status)
	require.GreaterOrEqual(t, h.balance(t, u.UserID), int64(0))
}

func TestConcurrentCheckoutsForLastCard(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.stock(t, "amz-15", 1)
	buyers := []*domain.User{h.user(t, 5000), h.user(t, 5000)}
	for _, b := range buyers {
		h.addToCart(t, b.UserID, "amz-15", 1)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(buyers))
	for i, b := range buyers {
		i, b := i, b
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.orders.CreateOrder(ctx, b.UserID)
		}()
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		if err == nil {
			succeeded++
			require.EqualValues(t, 3500, h.balance(t, buyers[i].UserID))
			continue
		}
		require.True(t,
			errors.Is(err, domain.ErrAllocationShort) || errors.Is(err, domain.ErrNoItemsAvailable),
			"unexpected error: %v", err)
		require.EqualValues(t, 5000, h.balance(t, buyers[i].UserID))
	}
	require.Equal(t, 1, succeeded)
}

func TestConcurrentCancelsRefundOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, func(r *harnessRepos) {
		r.orders = slowOrders{OrderRepository: r.orders, delay: 2 * time.Millisecond}
	})
	u := h.user(t, 5000)
	h.stock(t, "amz-15", 1)
	h.addToCart(t, u.UserID, "amz-15", 2)

	created, err := h.orders.CreateOrder(ctx, u.UserID)
	require.NoError(t, err)
	require.Equal(t, domain.StatePartiallyFulfilled, created.Status)
	require.EqualValues(t, 3500, h.balance(t, u.UserID))

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.orders.CancelOrder(ctx, created.OrderID, u.UserID)
		}()
	}
	wg.Wait()

	cancelled := 0
	for _, err := range errs {
		if err == nil {
			cancelled++
			continue
		}
		require.True(t, errors.Is(err, domain.ErrCannotCancel), "unexpected error: %v", err)
	}
	require.Equal(t, 1, cancelled)
	require.EqualValues(t, 5000-3000+1500+3000, h.balance(t, u.UserID))
	require.Equal(t, domain.StateCancelled, h.storedOrder(t, created.OrderID).Status)

	completed, failed := 0, 0
	for _, tx := range h.transactions(t, u.UserID, domain.TransactionRefund) {
		switch tx.Status {
		case domain.TransactionCompleted:
			completed++
		case domain.TransactionFailed:
			failed++
		}
	}
	// one partial-fulfilment refund plus the single cancellation that won
	require.Equal(t, 2, completed)
	require.Equal(t, attempts-1, failed)
}

func TestCancelDuringCheckoutWins(t *testing.T) {
	ctx := context.Background()
	intercepted := &interceptedOrders{}
	h := newHarness(t, func(r *harnessRepos) {
		intercepted.OrderRepository = r.orders
		r.orders = intercepted
	})
	u := h.user(t, 5000)
	h.stock(t, "amz-15", 2)
	h.addToCart(t, u.UserID, "amz-15", 2)

	var cancelErr error
	intercepted.beforeSettle = func(order *domain.Order) {
		_, cancelErr = h.orders.CancelOrder(ctx, order.OrderID, order.UserID)
	}

	_, err := h.orders.CreateOrder(ctx, u.UserID)
	require.True(t, errors.Is(err, domain.ErrOrderConflict), "unexpected error: %v", err)
	require.NoError(t, cancelErr)

	orders, err := h.store.Orders().ListByUser(ctx, u.UserID, 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, domain.StateCancelled, orders[0].Status)
	requireOrderInvariants(t, orders[0])

	require.EqualValues(t, 5000, h.balance(t, u.UserID), "paid once, refunded once")
	refunds := h.transactions(t, u.UserID, domain.TransactionRefund)
	require.Len(t, refunds, 1)
	require.EqualValues(t, 3000, refunds[0].Amount)

	n, err := h.inventory.CountAvailable(ctx, "amz-15")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Empty(t, h.publisher.reconciliations)
	for _, e := range h.publisher.events {
		require.NotEqual(t, domain.EventOrderFailed, e.Type)
	}
}

func TestCancelOrderWriteFailureReversesRefund(t *testing.T) {
	ctx := context.Background()
	var broken atomic.Bool
	h := newHarness(t, func(r *harnessRepos) {
		r.orders = breakableOrders{OrderRepository: r.orders, broken: &broken}
	})
	u := h.user(t, 5000)
	h.stock(t, "amz-15", 1)
	h.addToCart(t, u.UserID, "amz-15", 2)

	created, err := h.orders.CreateOrder(ctx, u.UserID)
	require.NoError(t, err)
	before := h.balance(t, u.UserID)

	broken.Store(true)
	_, err = h.orders.CancelOrder(ctx, created.OrderID, u.UserID)
	require.True(t, errors.Is(err, domain.ErrCancellationFailed), "unexpected error: %v", err)

	require.Equal(t, before, h.balance(t, u.UserID))
	refunds := h.transactions(t, u.UserID, domain.TransactionRefund)
	require.Len(t, refunds, 2)
	for _, tx := range refunds {
		if tx.Amount == 3000 {
			require.Equal(t, domain.TransactionFailed, tx.Status)
		}
	}
	require.Equal(t, domain.StatePartiallyFulfilled, h.storedOrder(t, created.OrderID).Status)

	used, err := h.store.GiftCards().ListUsedByOrder(ctx, created.OrderID)
	require.NoError(t, err)
	require.Len(t, used, 1, "cards stay with the order")
}
