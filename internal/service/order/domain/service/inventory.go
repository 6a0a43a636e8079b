// internal/service/order/domain/service/inventory.go
package service

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"giftify/internal/pkg/logger"
	"giftify/internal/pkg/metrics"
	"giftify/internal/service/order/domain"
	"giftify/internal/service/order/domain/port"
)

const (
	minCandidatePool = 50
	releaseBatchSize = 25
	// allocationRounds bounds how often MarkAsUsed re-reads the inventory
	// after losing races on its candidates.
	allocationRounds = 3

	DefaultReservationTTL = 10 * time.Minute
)

// GiftCardImport is one plaintext card handed to ImportGiftCards.
type GiftCardImport struct {
	ProductID     string    `yaml:"productId" json:"productId"`
	VariantID     string    `yaml:"variantId" json:"variantId"`
	Denomination  int64     `yaml:"denomination" json:"denomination"`
	PurchasePrice int64     `yaml:"purchasePrice" json:"purchasePrice"`
	Number        string    `yaml:"number" json:"number"`
	Pin           string    `yaml:"pin" json:"pin"`
	ExpiryTime    time.Time `yaml:"expiryTime" json:"expiryTime"`
}

// InventoryService allocates gift cards on top of the store's single-row
// conditional writes. Lost races are expected and never surface as errors.
type InventoryService struct {
	cards          domain.GiftCardRepository
	cipher         port.Cipher
	reservationTTL time.Duration
	now            func() time.Time
}

func NewInventoryService(cards domain.GiftCardRepository, cipher port.Cipher, reservationTTL time.Duration) *InventoryService {
	if reservationTTL <= 0 {
		reservationTTL = DefaultReservationTTL
	}
	return &InventoryService{cards: cards, cipher: cipher, reservationTTL: reservationTTL, now: time.Now}
}

// WithClock replaces the time source. Tests use it to step over reservation
// and card expiry.
func (s *InventoryService) WithClock(now func() time.Time) *InventoryService {
	s.now = now
	return s
}

func candidatePool(quantity int) int {
	return max(quantity*2, minCandidatePool)
}

// FindAvailableByVariant lists up to quantity available cards, soonest
// expiry first. It does not modify anything.
func (s *InventoryService) FindAvailableByVariant(ctx context.Context, variantID string, quantity int) ([]*domain.GiftCard, error) {
	if quantity <= 0 {
		return []*domain.GiftCard{}, nil
	}
	cards, err := s.cards.ListAvailableByVariant(ctx, variantID, s.now(), quantity)
	if err != nil {
		return nil, errors.Wrapf(err, "list available gift cards for variant %s", variantID)
	}
	return cards, nil
}

func (s *InventoryService) CountAvailable(ctx context.Context, variantID string) (int, error) {
	n, err := s.cards.CountAvailableByVariant(ctx, variantID, s.now())
	if err != nil {
		return 0, errors.Wrapf(err, "count available gift cards for variant %s", variantID)
	}
	return n, nil
}

// ReserveGiftCards claims up to quantity cards for orderID. Returning fewer
// than requested signals contention or low stock; it is not an error.
func (s *InventoryService) ReserveGiftCards(ctx context.Context, variantID string, quantity int, orderID, userID string) ([]*domain.GiftCard, error) {
	reserved := make([]*domain.GiftCard, 0, max(quantity, 0))
	if quantity <= 0 {
		return reserved, nil
	}

	now := s.now()
	candidates, err := s.cards.ListAvailableByVariant(ctx, variantID, now, candidatePool(quantity))
	if err != nil {
		return nil, errors.Wrapf(err, "list reservation candidates for variant %s", variantID)
	}

	expiresAt := now.Add(s.reservationTTL)
	for _, card := range candidates {
		if len(reserved) == quantity {
			break
		}
		ok, err := s.cards.TryReserve(ctx, card.GiftCardID, orderID, userID, now, expiresAt)
		if err != nil {
			return reserved, errors.Wrapf(err, "reserve gift card %s", card.GiftCardID)
		}
		if !ok {
			metrics.GiftCardClaimConflicts.WithLabelValues("reserve").Inc()
			continue
		}
		card.Reserve(orderID, userID, now, s.reservationTTL)
		reserved = append(reserved, card)
	}

	if len(reserved) < quantity {
		logger.Ctx(ctx).Warn().
			Str("order_id", orderID).
			Str("variant_id", variantID).
			Int("requested", quantity).
			Int("reserved", len(reserved)).
			Msg("reserved fewer gift cards than requested")
	}
	return reserved, nil
}

// ConfirmReservations turns the order's live reservations into usage.
// Cards whose reservation was lost are skipped; the caller compares counts.
func (s *InventoryService) ConfirmReservations(ctx context.Context, orderID string) ([]*domain.GiftCard, error) {
	cards, err := s.cards.ListReservedByOrder(ctx, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "list gift cards reserved by order %s", orderID)
	}

	now := s.now()
	confirmed := make([]*domain.GiftCard, 0, len(cards))
	for _, card := range cards {
		ok, err := s.cards.TryConfirm(ctx, card.GiftCardID, orderID, now)
		if err != nil {
			return confirmed, errors.Wrapf(err, "confirm gift card %s", card.GiftCardID)
		}
		if !ok {
			metrics.GiftCardClaimConflicts.WithLabelValues("confirm").Inc()
			continue
		}
		card.MarkUsed(orderID, card.ReservedByUser, now)
		confirmed = append(confirmed, card)
	}
	return confirmed, nil
}

// MarkAsUsed consumes quantity cards of a variant for orderID, trying the
// pre-selected ids first and falling back to fresh candidates when those
// were taken. It returns the ids it consumed; a shortfall is reported as
// ErrAllocationShort alongside the partial result so the caller can
// release it.
func (s *InventoryService) MarkAsUsed(ctx context.Context, variantID string, preselected []string, quantity int, orderID, userID string) ([]string, error) {
	used := make([]string, 0, max(quantity, 0))
	if quantity <= 0 {
		return used, nil
	}

	now := s.now()
	tried := make(map[string]struct{}, len(preselected))
	claim := func(cardID string) error {
		tried[cardID] = struct{}{}
		ok, err := s.cards.TryMarkUsed(ctx, cardID, orderID, userID, now)
		if err != nil {
			return errors.Wrapf(err, "mark gift card %s used", cardID)
		}
		if ok {
			used = append(used, cardID)
		} else {
			metrics.GiftCardClaimConflicts.WithLabelValues("allocate").Inc()
		}
		return nil
	}

	for _, id := range preselected {
		if len(used) == quantity {
			break
		}
		if err := claim(id); err != nil {
			return used, err
		}
	}

	for round := 0; len(used) < quantity && round < allocationRounds; round++ {
		candidates, err := s.cards.ListAvailableByVariant(ctx, variantID, now, candidatePool(quantity-len(used)))
		if err != nil {
			return used, errors.Wrapf(err, "list replacement gift cards for variant %s", variantID)
		}
		fresh := 0
		for _, card := range candidates {
			if len(used) == quantity {
				break
			}
			if _, seen := tried[card.GiftCardID]; seen {
				continue
			}
			fresh++
			if err := claim(card.GiftCardID); err != nil {
				return used, err
			}
		}
		if fresh == 0 {
			break
		}
	}

	if len(used) < quantity {
		return used, domain.ErrAllocationShort.WithMessage(
			"Allocated %d of %d gift cards for variant %s", len(used), quantity, variantID)
	}
	return used, nil
}

// ReleaseReservations clears the order's reservations. It keeps going past
// individual failures and returns the first one.
func (s *InventoryService) ReleaseReservations(ctx context.Context, orderID string) (int, error) {
	cards, err := s.cards.ListReservedByOrder(ctx, orderID)
	if err != nil {
		return 0, errors.Wrapf(err, "list gift cards reserved by order %s", orderID)
	}

	now := s.now()
	released := 0
	var firstErr error
	for _, card := range cards {
		ok, err := s.cards.TryReleaseReservation(ctx, card.GiftCardID, orderID, now)
		if err != nil {
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "release reservation of gift card %s", card.GiftCardID)
			}
			continue
		}
		if ok {
			released++
		}
	}
	return released, firstErr
}

// ReleaseGiftCards returns the order's used cards to stock, in concurrent
// batches. Every card is attempted; a failed release does not stop the rest.
func (s *InventoryService) ReleaseGiftCards(ctx context.Context, orderID string) (int, error) {
	cards, err := s.cards.ListUsedByOrder(ctx, orderID)
	if err != nil {
		return 0, errors.Wrapf(err, "list gift cards used by order %s", orderID)
	}

	now := s.now()
	var released atomic.Int64
	var firstErr error
	for start := 0; start < len(cards); start += releaseBatchSize {
		batch := cards[start:min(start+releaseBatchSize, len(cards))]
		var g errgroup.Group
		for _, card := range batch {
			card := card
			g.Go(func() error {
				ok, err := s.cards.TryReleaseUsed(ctx, card.GiftCardID, orderID, now)
				if err != nil {
					return errors.Wrapf(err, "release gift card %s", card.GiftCardID)
				}
				if ok {
					released.Add(1)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return int(released.Load()), firstErr
}

// FindByOrder returns the cards an order holds, used ones first, then those
// still reserved.
func (s *InventoryService) FindByOrder(ctx context.Context, orderID string) ([]*domain.GiftCard, error) {
	used, err := s.cards.ListUsedByOrder(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "list used gift cards")
	}
	reserved, err := s.cards.ListReservedByOrder(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "list reserved gift cards")
	}
	return append(used, reserved...), nil
}

// GetGiftCardDetails loads cards in the order of ids and decrypts their
// number and PIN.
func (s *InventoryService) GetGiftCardDetails(ctx context.Context, ids []string) ([]domain.GiftCardCode, error) {
	if len(ids) == 0 {
		return []domain.GiftCardCode{}, nil
	}
	cards, err := s.cards.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "load gift cards")
	}
	byID := make(map[string]*domain.GiftCard, len(cards))
	for _, c := range cards {
		byID[c.GiftCardID] = c
	}

	codes := make([]domain.GiftCardCode, 0, len(ids))
	for _, id := range ids {
		card, ok := byID[id]
		if !ok {
			return nil, domain.ErrGiftCardNotFound.WithMessage("Gift card %s not found", id)
		}
		number, err := s.cipher.Decrypt(card.GiftCardNumber)
		if err != nil {
			return nil, errors.Wrapf(err, "decrypt number of gift card %s", id)
		}
		pin, err := s.cipher.Decrypt(card.GiftCardPin)
		if err != nil {
			return nil, errors.Wrapf(err, "decrypt pin of gift card %s", id)
		}
		codes = append(codes, domain.GiftCardCode{
			GiftCardID:     card.GiftCardID,
			VariantID:      card.VariantID,
			ProductID:      card.ProductID,
			Denomination:   card.Denomination,
			GiftCardNumber: number,
			GiftCardPin:    pin,
			ExpiryTime:     card.ExpiryTime,
		})
	}
	return codes, nil
}

// ImportGiftCards encrypts and stores new stock.
func (s *InventoryService) ImportGiftCards(ctx context.Context, items []GiftCardImport) ([]*domain.GiftCard, error) {
	now := s.now()
	cards := make([]*domain.GiftCard, 0, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.VariantID) == "" || strings.TrimSpace(it.ProductID) == "" ||
			strings.TrimSpace(it.Number) == "" || strings.TrimSpace(it.Pin) == "" ||
			it.Denomination <= 0 || it.PurchasePrice < 0 {
			return nil, domain.ErrInvalidGiftCard.WithMessage("Gift card #%d is incomplete", i+1)
		}
		if !it.ExpiryTime.After(now) {
			return nil, domain.ErrInvalidGiftCard.WithMessage("Gift card #%d is already expired", i+1)
		}
		number, err := s.cipher.Encrypt(it.Number)
		if err != nil {
			return nil, errors.Wrap(err, "encrypt gift card number")
		}
		pin, err := s.cipher.Encrypt(it.Pin)
		if err != nil {
			return nil, errors.Wrap(err, "encrypt gift card pin")
		}
		cards = append(cards, domain.NewGiftCard(it.ProductID, it.VariantID, it.Denomination, it.PurchasePrice, number, pin, it.ExpiryTime, now))
	}
	if err := s.cards.Create(ctx, cards); err != nil {
		return nil, errors.Wrap(err, "store gift cards")
	}
	return cards, nil
}
