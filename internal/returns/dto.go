package returns

import (
	"time"

	"github.com/shopspring/decimal"
)

// createReturnRequest is the JSON body for POST /returns.
type createReturnRequest struct {
	InvoiceID   int64                     `json:"invoiceId" validate:"required,gt=0"`
	Items       []createReturnRequestItem `json:"items" validate:"required,min=1,dive"`
	Reason      string                    `json:"reason" validate:"required"`
	Notes       string                    `json:"notes"`
	PaymentType string                    `json:"paymentType" validate:"omitempty,oneof=CASH BANK DEFERRED"`
}

type createReturnRequestItem struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

func (r createReturnRequest) toInput() CreateReturnInput {
	items := make([]ReturnLineInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, ReturnLineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return CreateReturnInput{
		InvoiceID:   r.InvoiceID,
		Items:       items,
		Reason:      r.Reason,
		Notes:       r.Notes,
		PaymentType: PaymentType(r.PaymentType),
	}
}

type returnItemJSON struct {
	ProductID int64           `json:"productId"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
}

type returnJSON struct {
	ID            int64            `json:"id"`
	InvoiceID     int64            `json:"invoiceId"`
	Token         string           `json:"token"`
	Type          string           `json:"returnType"`
	Reason        string           `json:"reason"`
	Notes         string           `json:"notes,omitempty"`
	ItemsTotal    decimal.Decimal  `json:"itemsTotal"`
	DiscountShare decimal.Decimal  `json:"discountShare"`
	RefundAmount  decimal.Decimal  `json:"refundAmount"`
	Status        string           `json:"status"`
	PaymentType   string           `json:"paymentType"`
	ProcessedAt   time.Time        `json:"processedAt"`
	Items         []returnItemJSON `json:"items,omitempty"`
}

func toReturnJSON(ret Return, withItems bool) returnJSON {
	out := returnJSON{
		ID:            ret.ID,
		InvoiceID:     ret.InvoiceID,
		Token:         ret.Token,
		Type:          string(ret.Type),
		Reason:        ret.Reason,
		Notes:         ret.Notes,
		ItemsTotal:    ret.ItemsTotal,
		DiscountShare: ret.DiscountShare,
		RefundAmount:  ret.RefundAmount,
		Status:        string(ret.Status),
		PaymentType:   string(ret.PaymentType),
		ProcessedAt:   ret.ProcessedAt,
	}
	if withItems {
		for _, item := range ret.Items {
			out.Items = append(out.Items, returnItemJSON{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
				Cost:      item.Cost,
			})
		}
	}
	return out
}

type invoiceJSON struct {
	ID             int64           `json:"id"`
	Number         string          `json:"number"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Total          decimal.Decimal `json:"total"`
	Status         string          `json:"status"`
	PaymentType    string          `json:"paymentType"`
	IssuedAt       time.Time       `json:"issuedAt"`
}

type invoiceViewJSON struct {
	Invoice    invoiceJSON     `json:"invoice"`
	Items      []saleItemJSON  `json:"items"`
	Returns    []returnJSON    `json:"returns"`
	Returnable map[int64]int64 `json:"returnableQty"`
	Returned   map[int64]int64 `json:"returnedQty"`
}

type saleItemJSON struct {
	ProductID int64           `json:"productId"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
}
