package returns

import (
	"errors"
	"fmt"
)

var (
	// ErrInvoiceNotFound indicates the invoice is missing or belongs to
	// another tenant. Callers see the same error either way.
	ErrInvoiceNotFound = errors.New("returns: invoice not found")
	// ErrReturnNotFound indicates a missing return.
	ErrReturnNotFound = errors.New("returns: return not found")
	// ErrEmptyItems indicates a request without items.
	ErrEmptyItems = errors.New("returns: at least one item required")
	// ErrEmptyReason indicates a request without a reason.
	ErrEmptyReason = errors.New("returns: reason required")
	// ErrInvalidQuantity indicates a non-positive requested quantity.
	ErrInvalidQuantity = errors.New("returns: quantity must be positive")
	// ErrInvoiceNotReturnable indicates the invoice is fully refunded or
	// cancelled and accepts no further returns.
	ErrInvoiceNotReturnable = errors.New("returns: invoice is not eligible for returns")
	// ErrProductNotOnInvoice indicates a requested product never sold on
	// the invoice.
	ErrProductNotOnInvoice = errors.New("returns: product not on invoice")
	// ErrInsufficientQuantity indicates the requested quantity exceeds what
	// remains returnable for the product.
	ErrInsufficientQuantity = errors.New("returns: insufficient returnable quantity")
)

// InsufficientQuantityError names the offending product and what remains.
type InsufficientQuantityError struct {
	ProductID int64
	Requested int64
	Available int64
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("returns: product %d has %d returnable, %d requested", e.ProductID, e.Available, e.Requested)
}

// Is makes the typed error match the sentinel in errors.Is checks.
func (e *InsufficientQuantityError) Is(target error) bool {
	return target == ErrInsufficientQuantity
}
