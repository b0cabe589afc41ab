package returns

import "github.com/shopspring/decimal"

// RefundAllocation is the result of allocating the invoice-level discount to
// a partial return.
type RefundAllocation struct {
	DiscountShare decimal.Decimal
	RefundAmount  decimal.Decimal
}

// AllocateRefund gives a return its proportional share of the sale-level
// discount. The discount is not itemized, so a subset of items receives
// discount * (itemsTotal / subtotal); every call recomputes from the
// original invoice subtotal and discount, which makes the shares of
// successive partial returns sum to exactly the original discount.
func AllocateRefund(itemsTotal, invoiceSubtotal, invoiceDiscount decimal.Decimal) RefundAllocation {
	share := decimal.Zero
	if invoiceSubtotal.IsPositive() {
		share = invoiceDiscount.Mul(itemsTotal).Div(invoiceSubtotal).Round(2)
	}
	return RefundAllocation{
		DiscountShare: share,
		RefundAmount:  itemsTotal.Sub(share),
	}
}
