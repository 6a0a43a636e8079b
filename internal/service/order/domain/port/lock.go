package port

import "context"

// CheckoutLocker serialises checkouts of the same user across instances.
type CheckoutLocker interface {
	// Lock blocks until the user's lock is held or ctx ends. The returned
	// func releases it.
	Lock(ctx context.Context, userID string) (unlock func(), err error)
}
