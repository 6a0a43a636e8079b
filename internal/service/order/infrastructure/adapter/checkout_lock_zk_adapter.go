package adapter

import (
	"context"

	"giftify/internal/pkg/logger"
	"giftify/internal/pkg/zookeeper"
)

// CheckoutLockZkAdapter implements port.CheckoutLocker with a zookeeper
// sequential-node lock per user.
type CheckoutLockZkAdapter struct {
	conn *zookeeper.Conn
}

func NewCheckoutLockZkAdapter(conn *zookeeper.Conn) *CheckoutLockZkAdapter {
	return &CheckoutLockZkAdapter{conn: conn}
}

func (a *CheckoutLockZkAdapter) Lock(ctx context.Context, userID string) (func(), error) {
	lock, err := zookeeper.NewDistributedLock(a.conn, "checkout-"+userID)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(ctx); err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("failed to release checkout lock")
		}
	}, nil
}
