package ledger

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrAlreadyPaid       = errors.New("order already paid")
	ErrInvalidTransition = errors.New("illegal transition of order status")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrDuplicateOrder    = errors.New("order already exists")
)
