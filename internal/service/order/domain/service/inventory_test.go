package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"giftify/internal/pkg/cipher"
	"giftify/internal/service/order/domain"
	"giftify/internal/service/order/infrastructure/memory"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newInventory(t *testing.T) (*InventoryService, *memory.Store, *fixedClock) {
	t.Helper()
	box, err := cipher.NewBox("inventory-test-key")
	require.NoError(t, err)
	store := memory.NewStore()
	clock := &fixedClock{now: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
	svc := NewInventoryService(store.GiftCards(), box, 10*time.Minute).WithClock(clock.Now)
	return svc, store, clock
}

func seedCards(t *testing.T, svc *InventoryService, variantID string, n int) []*domain.GiftCard {
	t.Helper()
	items := make([]GiftCardImport, n)
	for i := range items {
		items[i] = GiftCardImport{
			ProductID:     "brand-1",
			VariantID:     variantID,
			Denomination:  50000,
			PurchasePrice: 47500,
			Number:        fmt.Sprintf("GC-%s-%04d", variantID, i),
			Pin:           fmt.Sprintf("%06d", i),
			ExpiryTime:    svc.now().Add(time.Duration(30+i) * 24 * time.Hour),
		}
	}
	cards, err := svc.ImportGiftCards(context.Background(), items)
	require.NoError(t, err)
	return cards
}

func ids(cards []*domain.GiftCard) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.GiftCardID
	}
	return out
}

func TestFindAvailableByVariantIsReadOnly(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInventory(t)
	seeded := seedCards(t, svc, "v1", 5)

	first, err := svc.FindAvailableByVariant(ctx, "v1", 3)
	require.NoError(t, err)
	second, err := svc.FindAvailableByVariant(ctx, "v1", 3)
	require.NoError(t, err)

	require.Equal(t, ids(first), ids(second))
	require.Equal(t, ids(seeded[:3]), ids(first), "soonest expiry first")

	n, err := svc.CountAvailable(ctx, "v1")
	require.NoError(t, err)
	require.Equal(t, 5, n)

	none, err := svc.FindAvailableByVariant(ctx, "v1", 0)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestReserveGiftCardsReturnsShortfallAsSignal(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newInventory(t)
	seedCards(t, svc, "v1", 5)

	a, err := svc.ReserveGiftCards(ctx, "v1", 3, "order-a", "user-a")
	require.NoError(t, err)
	require.Len(t, a, 3)

	b, err := svc.ReserveGiftCards(ctx, "v1", 3, "order-b", "user-b")
	require.NoError(t, err)
	require.Len(t, b, 2)

	c, err := svc.ReserveGiftCards(ctx, "v1", 1, "order-c", "user-c")
	require.NoError(t, err)
	require.Empty(t, c)

	// order-a's reservations lapse; nothing sweeps them
	clock.Advance(11 * time.Minute)
	c, err = svc.ReserveGiftCards(ctx, "v1", 5, "order-c", "user-c")
	require.NoError(t, err)
	require.Len(t, c, 5)
}

func TestConcurrentReservationOfLastCard(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInventory(t)
	seedCards(t, svc, "v1", 1)

	var wg sync.WaitGroup
	results := make([]int, 16)
	errs := make([]error, len(results))
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.ReserveGiftCards(ctx, "v1", 1, fmt.Sprintf("order-%d", i), "user")
			results[i], errs[i] = len(got), err
		}()
	}
	wg.Wait()

	total := 0
	for i, n := range results {
		require.NoError(t, errs[i])
		total += n
	}
	require.Equal(t, 1, total)
}

func TestConfirmReservationsConsumesCards(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newInventory(t)
	seedCards(t, svc, "v1", 2)

	_, err := svc.ReserveGiftCards(ctx, "v1", 2, "order-a", "user-a")
	require.NoError(t, err)
	confirmed, err := svc.ConfirmReservations(ctx, "order-a")
	require.NoError(t, err)
	require.Len(t, confirmed, 2)

	used, err := store.GiftCards().ListUsedByOrder(ctx, "order-a")
	require.NoError(t, err)
	require.Len(t, used, 2)
	for _, c := range used {
		require.Equal(t, "user-a", c.UsedByUser)
		require.Empty(t, c.ReservedByOrder, "used cards hold no reservation")
	}

	again, err := svc.ReserveGiftCards(ctx, "v1", 1, "order-b", "user-b")
	require.NoError(t, err)
	require.Empty(t, again, "used cards are never re-reserved")
}

func TestReleaseReservations(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInventory(t)
	seedCards(t, svc, "v1", 3)

	_, err := svc.ReserveGiftCards(ctx, "v1", 3, "order-a", "user-a")
	require.NoError(t, err)
	n, err := svc.ReleaseReservations(ctx, "order-a")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	count, err := svc.CountAvailable(ctx, "v1")
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestMarkAsUsedReplacesLostCandidates(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInventory(t)
	seedCards(t, svc, "v1", 4)

	pre, err := svc.FindAvailableByVariant(ctx, "v1", 2)
	require.NoError(t, err)

	// a concurrent checkout takes one of the pre-selected cards
	stolen, err := svc.MarkAsUsed(ctx, "v1", ids(pre[:1]), 1, "order-x", "user-x")
	require.NoError(t, err)
	require.Equal(t, ids(pre[:1]), stolen)

	got, err := svc.MarkAsUsed(ctx, "v1", ids(pre), 2, "order-a", "user-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotContains(t, got, pre[0].GiftCardID)
	require.Contains(t, got, pre[1].GiftCardID)
}

func TestMarkAsUsedReportsShortAllocation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInventory(t)
	seedCards(t, svc, "v1", 2)

	got, err := svc.MarkAsUsed(ctx, "v1", nil, 3, "order-a", "user-a")
	require.True(t, errors.Is(err, domain.ErrAllocationShort))
	require.Len(t, got, 2)
}

func TestReleaseGiftCardsInBatches(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInventory(t)
	seedCards(t, svc, "v1", 60)

	got, err := svc.MarkAsUsed(ctx, "v1", nil, 60, "order-a", "user-a")
	require.NoError(t, err)
	require.Len(t, got, 60)

	n, err := svc.ReleaseGiftCards(ctx, "order-a")
	require.NoError(t, err)
	require.Equal(t, 60, n)

	count, err := svc.CountAvailable(ctx, "v1")
	require.NoError(t, err)
	require.Equal(t, 60, count)

	n, err = svc.ReleaseGiftCards(ctx, "order-a")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestGiftCardDetailsDecrypt(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newInventory(t)
	cards := seedCards(t, svc, "v1", 2)

	stored, err := store.GiftCards().FindByIDs(ctx, ids(cards))
	require.NoError(t, err)
	require.NotEqual(t, "GC-v1-0000", stored[0].GiftCardNumber, "numbers are encrypted at rest")

	codes, err := svc.GetGiftCardDetails(ctx, []string{cards[1].GiftCardID, cards[0].GiftCardID})
	require.NoError(t, err)
	require.Equal(t, "GC-v1-0001", codes[0].GiftCardNumber)
	require.Equal(t, "000001", codes[0].GiftCardPin)
	require.Equal(t, "GC-v1-0000", codes[1].GiftCardNumber)

	_, err = svc.GetGiftCardDetails(ctx, []string{"missing"})
	require.True(t, errors.Is(err, domain.ErrGiftCardNotFound))
}

func TestImportRejectsBadCards(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInventory(t)

	_, err := svc.ImportGiftCards(ctx, []GiftCardImport{{ProductID: "b", VariantID: "v", Denomination: 100, Number: "n", Pin: "p", ExpiryTime: svc.now().Add(-time.Hour)}})
	require.True(t, errors.Is(err, domain.ErrInvalidGiftCard))

	_, err = svc.ImportGiftCards(ctx, []GiftCardImport{{ProductID: "b", VariantID: "v", Denomination: 100, ExpiryTime: svc.now().Add(time.Hour)}})
	require.True(t, errors.Is(err, domain.ErrInvalidGiftCard))
}

func TestFindByOrderListsUsedThenReserved(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInventory(t)
	seedCards(t, svc, "v1", 3)

	_, err := svc.ReserveGiftCards(ctx, "v1", 2, "order-a", "user-a")
	require.NoError(t, err)
	_, err = svc.ConfirmReservations(ctx, "order-a")
	require.NoError(t, err)
	_, err = svc.ReserveGiftCards(ctx, "v1", 1, "order-a", "user-a")
	require.NoError(t, err)

	held, err := svc.FindByOrder(ctx, "order-a")
	require.NoError(t, err)
	require.Len(t, held, 3)
	require.True(t, held[0].IsUsed())
	require.True(t, held[1].IsUsed())
	require.False(t, held[2].IsUsed())
	require.Equal(t, "order-a", held[2].ReservedByOrder)

	none, err := svc.FindByOrder(ctx, "order-b")
	require.NoError(t, err)
	require.Empty(t, none)
}

// flakyReleaseCards fails the release of one card and honours cancellation
// like a SQL driver would.
type flakyReleaseCards struct {
	domain.GiftCardRepository
	failID string
}

func (r flakyReleaseCards) TryReleaseUsed(ctx context.Context, cardID, orderID string, now time.Time) (bool, error) {
	if cardID == r.failID {
		return false, errors.New("deadlock found when trying to get lock")
	}
	time.Sleep(time.Millisecond)
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return r.GiftCardRepository.TryReleaseUsed(ctx, cardID, orderID, now)
}

func TestReleaseGiftCardsAttemptsEveryCard(t *testing.T) {
	ctx := context.Background()
	svc, store, clock := newInventory(t)
	seedCards(t, svc, "v1", 10)
	used, err := svc.MarkAsUsed(ctx, "v1", nil, 10, "order-a", "user-a")
	require.NoError(t, err)

	box, err := cipher.NewBox("inventory-test-key")
	require.NoError(t, err)
	flaky := NewInventoryService(flakyReleaseCards{GiftCardRepository: store.GiftCards(), failID: used[0]}, box, 10*time.Minute).
		WithClock(clock.Now)

	n, err := flaky.ReleaseGiftCards(ctx, "order-a")
	require.Error(t, err)
	require.Equal(t, 9, n)

	left, err := store.GiftCards().ListUsedByOrder(ctx, "order-a")
	require.NoError(t, err)
	require.Equal(t, []string{used[0]}, ids(left))
}
