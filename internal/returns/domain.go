package returns

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates invoice lifecycle values. Once a return is
// processed the status only moves toward refund states, never back.
type InvoiceStatus string

const (
	InvoiceStatusCompleted     InvoiceStatus = "COMPLETED"
	InvoiceStatusPartialRefund InvoiceStatus = "PARTIAL_REFUND"
	InvoiceStatusRefunded      InvoiceStatus = "REFUNDED"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
)

// ReturnStatus enumerates return lifecycle values. Rejected and cancelled
// returns do not consume returnable quota.
type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "PENDING"
	ReturnStatusApproved  ReturnStatus = "APPROVED"
	ReturnStatusCompleted ReturnStatus = "COMPLETED"
	ReturnStatusRejected  ReturnStatus = "REJECTED"
	ReturnStatusCancelled ReturnStatus = "CANCELLED"
)

// ConsumesQuota reports whether a return in this status counts against the
// invoice's returnable quantities.
func (s ReturnStatus) ConsumesQuota() bool {
	switch s {
	case ReturnStatusPending, ReturnStatusApproved, ReturnStatusCompleted:
		return true
	default:
		return false
	}
}

// ReturnType distinguishes a partial return from one that, combined with
// prior returns, accounts for every unit sold on the invoice.
type ReturnType string

const (
	ReturnTypePartial ReturnType = "PARTIAL"
	ReturnTypeFull    ReturnType = "FULL"
)

// PaymentType selects the account credited when refunding.
type PaymentType string

const (
	PaymentTypeCash     PaymentType = "CASH"
	PaymentTypeBank     PaymentType = "BANK"
	PaymentTypeDeferred PaymentType = "DEFERRED"
)

// Invoice is the sale-side document a return is processed against.
type Invoice struct {
	ID             int64
	TenantID       int64
	SaleID         int64
	WarehouseID    int64
	Number         string
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	Status         InvoiceStatus
	PaymentType    PaymentType
	IssuedAt       time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SaleItem is the immutable record of what was sold: the source of truth for
// original quantities and sale-time price/cost snapshots.
type SaleItem struct {
	ID        int64
	SaleID    int64
	ProductID int64
	Quantity  int64
	Price     decimal.Decimal
	Cost      decimal.Decimal
}

// Return records one processed merchandise return against an invoice.
type Return struct {
	ID            int64
	TenantID      int64
	InvoiceID     int64
	Token         string
	Type          ReturnType
	Reason        string
	Notes         string
	ItemsTotal    decimal.Decimal
	DiscountShare decimal.Decimal
	RefundAmount  decimal.Decimal
	Status        ReturnStatus
	PaymentType   PaymentType
	ProcessedAt   time.Time
	ProcessedBy   int64
	CreatedAt     time.Time
	Items         []ReturnItem
}

// ReturnItem snapshots the returned values independent of later price
// changes on the product.
type ReturnItem struct {
	ID        int64
	ReturnID  int64
	ProductID int64
	Quantity  int64
	Price     decimal.Decimal
	Cost      decimal.Decimal
}

// Returnable summarises per-product quantities for an invoice.
type Returnable struct {
	Original   map[int64]int64
	Returned   map[int64]int64
	Returnable map[int64]int64
}

// InvoiceView is the caller-facing financial summary of an invoice.
type InvoiceView struct {
	Invoice    Invoice
	Items      []SaleItem
	Returns    []Return
	Returnable Returnable
}
