package returns

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records audit events for processed returns.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort invalidates cached invoice and return views after a successful
// return.
type CachePort interface {
	FetchJSON(ctx context.Context, tenantID int64, key string, dest any, loader func(context.Context) (any, error)) error
	Invalidate(ctx context.Context, tenantID int64) error
}

// ServiceConfig groups processor settings.
type ServiceConfig struct {
	// CreateMissingStockRows switches restoration from skip-and-log to
	// upsert-at-zero when the stock row does not exist.
	CreateMissingStockRows bool
	// RetryAttempts bounds transparent retries on transaction conflicts.
	RetryAttempts int
}

// Service orchestrates return processing: validation, stock restoration,
// return-type determination, persistence, and journal posting as one atomic
// unit.
type Service struct {
	repo   RepositoryPort
	cache  CachePort
	audit  AuditPort
	logger *slog.Logger
	cfg    ServiceConfig
	now    func() time.Time
}

// NewService builds the return processor.
func NewService(repo RepositoryPort, cache CachePort, audit AuditPort, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger, cfg: cfg, now: time.Now}
}

// WithNow overrides the service clock for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ReturnLineInput is one requested product/quantity pair.
type ReturnLineInput struct {
	ProductID int64
	Quantity  int64
}

// CreateReturnInput groups the return request.
type CreateReturnInput struct {
	InvoiceID   int64
	Items       []ReturnLineInput
	Reason      string
	Notes       string
	PaymentType PaymentType
}

// Validate rejects malformed requests before any transaction starts.
func (in CreateReturnInput) Validate() error {
	if len(in.Items) == 0 {
		return ErrEmptyItems
	}
	if strings.TrimSpace(in.Reason) == "" {
		return ErrEmptyReason
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: product %d", ErrInvalidQuantity, item.ProductID)
		}
	}
	switch in.PaymentType {
	case "", PaymentTypeCash, PaymentTypeBank, PaymentTypeDeferred:
	default:
		return fmt.Errorf("returns: unknown payment type %q", in.PaymentType)
	}
	return nil
}

// normalizedLines merges duplicate products so quota checks see one
// quantity per product.
func normalizedLines(items []ReturnLineInput) []ReturnLineInput {
	index := make(map[int64]int, len(items))
	out := make([]ReturnLineInput, 0, len(items))
	for _, item := range items {
		if at, ok := index[item.ProductID]; ok {
			out[at].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out
}

// CreateReturn processes one return request. All effects happen inside a
// serializable transaction; concurrent returns against the same invoice
// conflict there and are retried a bounded number of times.
func (s *Service) CreateReturn(ctx context.Context, actor shared.Actor, input CreateReturnInput) (Return, error) {
	if actor.TenantID == 0 {
		return Return{}, shared.ErrTenantRequired
	}
	if err := input.Validate(); err != nil {
		return Return{}, err
	}
	lines := normalizedLines(input.Items)

	var result Return
	var err error
	for attempt := 0; attempt < s.cfg.RetryAttempts; attempt++ {
		result, err = s.process(ctx, actor, input, lines)
		if err == nil || !IsSerializationFailure(err) {
			break
		}
		s.logger.Warn("return transaction conflict, retrying",
			slog.Int64("invoice_id", input.InvoiceID),
			slog.Int("attempt", attempt+1))
	}
	if err != nil {
		if IsSerializationFailure(err) {
			return Return{}, shared.ErrConflict
		}
		return Return{}, err
	}

	if s.cache != nil {
		if cerr := s.cache.Invalidate(ctx, actor.TenantID); cerr != nil {
			s.logger.Warn("invalidate views", slog.Any("error", cerr))
		}
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: actor.TenantID,
			ActorID:  actor.UserID,
			Action:   "return.process",
			Entity:   "return",
			EntityID: fmt.Sprintf("%d", result.ID),
			Meta: map[string]any{
				"token":       result.Token,
				"invoice_id":  result.InvoiceID,
				"return_type": string(result.Type),
				"refund":      result.RefundAmount.String(),
			},
			At: s.now(),
		})
	}
	return result, nil
}

func (s *Service) process(ctx context.Context, actor shared.Actor, input CreateReturnInput, lines []ReturnLineInput) (Return, error) {
	var result Return
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoice, saleItems, err := tx.GetInvoiceForUpdate(ctx, actor.TenantID, input.InvoiceID)
		if err != nil {
			return err
		}
		if invoice.Status == InvoiceStatusRefunded || invoice.Status == InvoiceStatusCancelled {
			return ErrInvoiceNotReturnable
		}

		prior, err := tx.ListInvoiceReturns(ctx, actor.TenantID, invoice.ID)
		if err != nil {
			return err
		}
		returnable := ResolveReturnable(saleItems, prior)

		for _, line := range lines {
			available, sold := returnable.Returnable[line.ProductID]
			if !sold {
				return fmt.Errorf("%w: product %d on invoice %d", ErrProductNotOnInvoice, line.ProductID, invoice.ID)
			}
			if line.Quantity > available {
				return &InsufficientQuantityError{ProductID: line.ProductID, Requested: line.Quantity, Available: available}
			}
		}

		saleItemByProduct := make(map[int64]SaleItem, len(saleItems))
		for _, item := range saleItems {
			saleItemByProduct[item.ProductID] = item
		}

		now := s.now()
		itemsTotal := decimal.Zero
		itemsCost := decimal.Zero
		var returning int64
		retItems := make([]ReturnItem, 0, len(lines))
		for _, line := range lines {
			sold := saleItemByProduct[line.ProductID]
			qty := decimal.NewFromInt(line.Quantity)
			cost := sold.Cost
			if cost.IsZero() {
				// Sale item predates cost snapshots: fall back to the
				// current product cost.
				current, err := tx.CurrentProductCost(ctx, actor.TenantID, line.ProductID)
				if err != nil {
					return err
				}
				cost = current
			}
			itemsTotal = itemsTotal.Add(sold.Price.Mul(qty))
			itemsCost = itemsCost.Add(cost.Mul(qty))
			returning += line.Quantity
			retItems = append(retItems, ReturnItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     sold.Price,
				Cost:      cost,
			})
		}

		allocation := AllocateRefund(itemsTotal, invoice.Subtotal, invoice.DiscountAmount)

		returnType := ReturnTypePartial
		if returnable.TotalReturned()+returning >= returnable.TotalOriginal() {
			returnType = ReturnTypeFull
		}

		token, err := tx.NextReturnToken(ctx, actor.TenantID, now)
		if err != nil {
			return err
		}

		paymentType := input.PaymentType
		if paymentType == "" {
			paymentType = invoice.PaymentType
		}
		if paymentType == "" {
			paymentType = PaymentTypeCash
		}

		ret := Return{
			TenantID:      actor.TenantID,
			InvoiceID:     invoice.ID,
			Token:         token,
			Type:          returnType,
			Reason:        strings.TrimSpace(input.Reason),
			Notes:         strings.TrimSpace(input.Notes),
			ItemsTotal:    itemsTotal,
			DiscountShare: allocation.DiscountShare,
			RefundAmount:  allocation.RefundAmount,
			Status:        ReturnStatusCompleted,
			PaymentType:   paymentType,
			ProcessedAt:   now,
			ProcessedBy:   actor.UserID,
			Items:         retItems,
		}
		inserted, err := tx.InsertReturn(ctx, ret)
		if err != nil {
			return err
		}

		nextStatus := InvoiceStatusPartialRefund
		if returnType == ReturnTypeFull {
			nextStatus = InvoiceStatusRefunded
		}
		if err := tx.UpdateInvoiceStatus(ctx, actor.TenantID, invoice.ID, nextStatus); err != nil {
			return err
		}

		for _, item := range inserted.Items {
			restored, err := tx.IncrementStock(ctx, actor.TenantID, invoice.WarehouseID, item.ProductID, item.Quantity, s.cfg.CreateMissingStockRows)
			if err != nil {
				return err
			}
			if !restored {
				// No stock row for this product at the tenant warehouse.
				// Restoration is skipped rather than failing the return;
				// see STOCK_RESTORE_POLICY for the upsert alternative.
				s.logger.Warn("stock restoration skipped, no stock row",
					slog.Int64("tenant_id", actor.TenantID),
					slog.Int64("product_id", item.ProductID),
					slog.Int64("warehouse_id", invoice.WarehouseID))
			}
		}

		if posting, ok := buildRefundPosting(inserted, actor.UserID, now); ok {
			if _, err := tx.PostJournal(ctx, actor.TenantID, posting); err != nil {
				return err
			}
		}

		result = inserted
		return nil
	})
	if err != nil {
		return Return{}, err
	}
	return result, nil
}

// creditAccountFor maps the refund payment type to the account credited.
func creditAccountFor(paymentType PaymentType) string {
	switch paymentType {
	case PaymentTypeBank:
		return ledger.AccountBank
	case PaymentTypeDeferred:
		return ledger.AccountDeferredReceivable
	default:
		return ledger.AccountCash
	}
}

// buildRefundPosting assembles the four-line entry that books a return:
// reverse the revenue against the refund source, and move the cost of the
// restored goods back from COGS into inventory. Debits equal credits by
// construction. Zero-amount pairs are omitted; if nothing remains there is
// nothing to book.
func buildRefundPosting(ret Return, postedBy int64, at time.Time) (ledger.PostingInput, bool) {
	var lines []ledger.PostingLineInput
	if ret.RefundAmount.IsPositive() {
		lines = append(lines,
			ledger.PostingLineInput{AccountCode: ledger.AccountSalesRevenue, Type: ledger.EntryTypeDebit, Amount: ret.RefundAmount},
			ledger.PostingLineInput{AccountCode: creditAccountFor(ret.PaymentType), Type: ledger.EntryTypeCredit, Amount: ret.RefundAmount},
		)
	}
	cost := decimal.Zero
	for _, item := range ret.Items {
		cost = cost.Add(item.Cost.Mul(decimal.NewFromInt(item.Quantity)))
	}
	if cost.IsPositive() {
		lines = append(lines,
			ledger.PostingLineInput{AccountCode: ledger.AccountInventory, Type: ledger.EntryTypeDebit, Amount: cost},
			ledger.PostingLineInput{AccountCode: ledger.AccountCostOfGoodsSold, Type: ledger.EntryTypeCredit, Amount: cost},
		)
	}
	if len(lines) == 0 {
		return ledger.PostingInput{}, false
	}
	return ledger.PostingInput{
		Description:  fmt.Sprintf("Return %s against invoice %s", ret.Token, ret.InvoiceNumberOrID()),
		SourceModule: "returns",
		SourceID:     uuid.New(),
		Date:         at,
		PostedBy:     postedBy,
		Lines:        lines,
	}, true
}

// InvoiceNumberOrID falls back to the numeric id when the human-readable
// invoice number was not loaded.
func (r Return) InvoiceNumberOrID() string {
	return fmt.Sprintf("%d", r.InvoiceID)
}

// GetReturn loads one return with its items.
func (s *Service) GetReturn(ctx context.Context, actor shared.Actor, id int64) (Return, error) {
	if actor.TenantID == 0 {
		return Return{}, shared.ErrTenantRequired
	}
	return s.repo.GetReturn(ctx, actor.TenantID, id)
}

// ListReturns pages through the tenant's returns, newest first.
func (s *Service) ListReturns(ctx context.Context, actor shared.Actor, page, perPage int) ([]Return, shared.Pagination, error) {
	if actor.TenantID == 0 {
		return nil, shared.Pagination{}, shared.ErrTenantRequired
	}
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListReturns(ctx, actor.TenantID, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// InvoiceSummary returns the financial summary for one invoice: totals,
// prior returns, and what remains returnable per product. Served through the
// versioned view cache; processing a return bumps the version.
func (s *Service) InvoiceSummary(ctx context.Context, actor shared.Actor, invoiceID int64) (InvoiceView, error) {
	if actor.TenantID == 0 {
		return InvoiceView{}, shared.ErrTenantRequired
	}
	load := func(ctx context.Context) (any, error) {
		invoice, items, err := s.repo.GetInvoice(ctx, actor.TenantID, invoiceID)
		if err != nil {
			return nil, err
		}
		rets, err := s.repo.ListInvoiceReturns(ctx, actor.TenantID, invoiceID)
		if err != nil {
			return nil, err
		}
		return InvoiceView{
			Invoice:    invoice,
			Items:      items,
			Returns:    rets,
			Returnable: ResolveReturnable(items, rets),
		}, nil
	}
	if s.cache == nil {
		view, err := load(ctx)
		if err != nil {
			return InvoiceView{}, err
		}
		return view.(InvoiceView), nil
	}
	var view InvoiceView
	key := fmt.Sprintf("invoice:%d", invoiceID)
	if err := s.cache.FetchJSON(ctx, actor.TenantID, key, &view, load); err != nil {
		return InvoiceView{}, err
	}
	return view, nil
}
