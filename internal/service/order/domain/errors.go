// internal/service/order/domain/errors.go
package domain

import "giftify/internal/pkg/apperror"

// Stable business errors. Codes are part of the API contract.
var (
	ErrValidation = apperror.New(apperror.KindValidation, "VALIDATION_ERROR", "Invalid request")

	ErrUserNotFound       = apperror.New(apperror.KindNotFound, "USER_NOT_FOUND", "User not found")
	ErrUserInactive       = apperror.New(apperror.KindForbidden, "USER_INACTIVE", "User account is not active")
	ErrEmailTaken         = apperror.New(apperror.KindConflict, "EMAIL_TAKEN", "An account with this email already exists")
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrInvalidToken       = apperror.New(apperror.KindUnauthorized, "INVALID_TOKEN", "Invalid or expired token")

	ErrCartNotFound    = apperror.New(apperror.KindNotFound, "CART_NOT_FOUND", "Cart not found")
	ErrEmptyCart       = apperror.New(apperror.KindValidation, "EMPTY_CART", "Cart is empty")
	ErrCartItemMissing = apperror.New(apperror.KindNotFound, "CART_ITEM_NOT_FOUND", "Item not found in cart")
	ErrInvalidQuantity = apperror.New(apperror.KindValidation, "INVALID_QUANTITY", "Quantity is out of range")

	ErrBrandNotFound   = apperror.New(apperror.KindNotFound, "BRAND_NOT_FOUND", "Brand not found")
	ErrVariantNotFound = apperror.New(apperror.KindNotFound, "VARIANT_NOT_FOUND", "Product variant not found")
	ErrVariantInactive = apperror.New(apperror.KindValidation, "VARIANT_INACTIVE", "Product variant is no longer available")

	ErrNoItemsAvailable    = apperror.New(apperror.KindCapacity, "NO_ITEMS_AVAILABLE", "None of the items in your cart are currently available")
	ErrInsufficientBalance = apperror.New(apperror.KindCapacity, "INSUFFICIENT_BALANCE", "Insufficient wallet balance")
	ErrAllocationShort     = apperror.New(apperror.KindConflict, "ALLOCATION_FAILED", "Gift cards could not be allocated")

	ErrOrderNotFound           = apperror.New(apperror.KindNotFound, "ORDER_NOT_FOUND", "Order not found")
	ErrOrderExists             = apperror.New(apperror.KindConflict, "ORDER_ALREADY_EXISTS", "Order already exists")
	ErrOrderConflict           = apperror.New(apperror.KindConflict, "ORDER_CONFLICT", "Order was changed by another request")
	ErrOrderAccessDenied       = apperror.New(apperror.KindForbidden, "ORDER_ACCESS_DENIED", "You do not have access to this order")
	ErrCannotCancel            = apperror.New(apperror.KindValidation, "CANNOT_CANCEL", "Order cannot be cancelled in its current status")
	ErrInvalidRefundAmount     = apperror.New(apperror.KindValidation, "INVALID_REFUND_AMOUNT", "Order has no paid amount to refund")
	ErrInvalidStatusTransition = apperror.New(apperror.KindValidation, "INVALID_STATUS_TRANSITION", "Invalid status transition")
	ErrOrderCreationFailed     = apperror.New(apperror.KindInternal, "ORDER_CREATION_FAILED", "Failed to create order")
	ErrCancellationFailed      = apperror.New(apperror.KindInternal, "CANCELLATION_FAILED", "Failed to cancel order")

	ErrInvalidAmount       = apperror.New(apperror.KindValidation, "INVALID_AMOUNT", "Amount must be a positive integer within the wallet limit")
	ErrTopUpFailed         = apperror.New(apperror.KindInternal, "TOPUP_FAILED", "Failed to top up wallet")
	ErrTransactionNotFound = apperror.New(apperror.KindNotFound, "TRANSACTION_NOT_FOUND", "Wallet transaction not found")

	ErrGiftCardNotFound = apperror.New(apperror.KindNotFound, "GIFT_CARD_NOT_FOUND", "Gift card not found")
	ErrInvalidGiftCard  = apperror.New(apperror.KindValidation, "INVALID_GIFT_CARD", "Gift card data is invalid")
)
