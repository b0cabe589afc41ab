package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetReturn(ctx context.Context, tenantID, id int64) (Return, error)
	ListReturns(ctx context.Context, tenantID int64, limit, offset int) ([]Return, int, error)
	GetInvoice(ctx context.Context, tenantID, invoiceID int64) (Invoice, []SaleItem, error)
	ListInvoiceReturns(ctx context.Context, tenantID, invoiceID int64) ([]Return, error)
}

// TxRepository exposes the operations available inside the processing
// transaction. Stock and journal writes live here so they commit or roll
// back together with the return.
type TxRepository interface {
	GetInvoiceForUpdate(ctx context.Context, tenantID, invoiceID int64) (Invoice, []SaleItem, error)
	ListInvoiceReturns(ctx context.Context, tenantID, invoiceID int64) ([]Return, error)
	CurrentProductCost(ctx context.Context, tenantID, productID int64) (decimal.Decimal, error)
	NextReturnToken(ctx context.Context, tenantID int64, at time.Time) (string, error)
	InsertReturn(ctx context.Context, ret Return) (Return, error)
	UpdateInvoiceStatus(ctx context.Context, tenantID, invoiceID int64, status InvoiceStatus) error
	IncrementStock(ctx context.Context, tenantID, warehouseID, productID, qty int64, createMissing bool) (bool, error)
	PostJournal(ctx context.Context, tenantID int64, in ledger.PostingInput) (ledger.JournalEntry, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed returns repository.
func NewRepository(db *pgxpool.Pool) RepositoryPort {
	return &repository{db: db}
}

// IsSerializationFailure reports whether the error is a transaction
// conflict the caller may retry (serialization failure or deadlock).
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const invoiceColumns = `id, tenant_id, sale_id, warehouse_id, number, subtotal, discount_amount, total, status, payment_type, issued_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.TenantID, &inv.SaleID, &inv.WarehouseID, &inv.Number, &inv.Subtotal, &inv.DiscountAmount, &inv.Total, &inv.Status, &inv.PaymentType, &inv.IssuedAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrInvoiceNotFound
		}
		return Invoice{}, err
	}
	return inv, nil
}

func (r *repository) GetInvoice(ctx context.Context, tenantID, invoiceID int64) (Invoice, []SaleItem, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id=$1 AND id=$2`, tenantID, invoiceID))
	if err != nil {
		return Invoice{}, nil, err
	}
	items, err := saleItemsForSale(ctx, r.db, inv.SaleID)
	if err != nil {
		return Invoice{}, nil, err
	}
	return inv, items, nil
}

func (r *repository) ListInvoiceReturns(ctx context.Context, tenantID, invoiceID int64) ([]Return, error) {
	return listInvoiceReturns(ctx, r.db, tenantID, invoiceID)
}

func (r *repository) GetReturn(ctx context.Context, tenantID, id int64) (Return, error) {
	ret, err := scanReturn(r.db.QueryRow(ctx, `SELECT `+returnColumns+` FROM returns WHERE tenant_id=$1 AND id=$2`, tenantID, id))
	if err != nil {
		return Return{}, err
	}
	items, err := returnItems(ctx, r.db, ret.ID)
	if err != nil {
		return Return{}, err
	}
	ret.Items = items
	return ret, nil
}

func (r *repository) ListReturns(ctx context.Context, tenantID int64, limit, offset int) ([]Return, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM returns WHERE tenant_id=$1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+returnColumns+` FROM returns WHERE tenant_id=$1 ORDER BY id DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	rets, err := collectReturns(rows)
	if err != nil {
		return nil, 0, err
	}
	return rets, total, nil
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetInvoiceForUpdate(ctx context.Context, tenantID, invoiceID int64) (Invoice, []SaleItem, error) {
	inv, err := scanInvoice(r.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, invoiceID))
	if err != nil {
		return Invoice{}, nil, err
	}
	items, err := saleItemsForSale(ctx, r.tx, inv.SaleID)
	if err != nil {
		return Invoice{}, nil, err
	}
	return inv, items, nil
}

func (r *txRepository) ListInvoiceReturns(ctx context.Context, tenantID, invoiceID int64) ([]Return, error) {
	return listInvoiceReturns(ctx, r.tx, tenantID, invoiceID)
}

func (r *txRepository) CurrentProductCost(ctx context.Context, tenantID, productID int64) (decimal.Decimal, error) {
	var cost decimal.Decimal
	err := r.tx.QueryRow(ctx, `SELECT cost FROM products WHERE tenant_id=$1 AND id=$2`, tenantID, productID).Scan(&cost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return cost, nil
}

// NextReturnToken draws the next value from the tenant's monthly return
// sequence. The upsert serialises concurrent callers on the sequence row, so
// tokens cannot collide within a tenant.
func (r *txRepository) NextReturnToken(ctx context.Context, tenantID int64, at time.Time) (string, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO document_sequences (tenant_id, doc_type, period, seq)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (tenant_id, doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, tenantID, "RET", at.Format("200601")).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RET-%s-%04d", at.Format("0601"), seq), nil
}

func (r *txRepository) InsertReturn(ctx context.Context, ret Return) (Return, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO returns
(tenant_id, invoice_id, token, return_type, reason, notes, items_total, discount_share, refund_amount, status, payment_type, processed_at, processed_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
RETURNING id, created_at`,
		ret.TenantID, ret.InvoiceID, ret.Token, ret.Type, ret.Reason, ret.Notes, ret.ItemsTotal, ret.DiscountShare, ret.RefundAmount, ret.Status, ret.PaymentType, ret.ProcessedAt, nullInt(ret.ProcessedBy)).
		Scan(&ret.ID, &ret.CreatedAt)
	if err != nil {
		return Return{}, err
	}
	for idx := range ret.Items {
		item := &ret.Items[idx]
		item.ReturnID = ret.ID
		err := r.tx.QueryRow(ctx, `INSERT INTO return_items (return_id, product_id, quantity, price, cost)
VALUES ($1,$2,$3,$4,$5) RETURNING id`, ret.ID, item.ProductID, item.Quantity, item.Price, item.Cost).Scan(&item.ID)
		if err != nil {
			return Return{}, err
		}
	}
	return ret, nil
}

func (r *txRepository) UpdateInvoiceStatus(ctx context.Context, tenantID, invoiceID int64, status InvoiceStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET status=$3, updated_at=NOW() WHERE tenant_id=$1 AND id=$2`, tenantID, invoiceID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// IncrementStock restores quantity onto the stock row as a single atomic
// update. Returns false when no row exists and createMissing is off.
func (r *txRepository) IncrementStock(ctx context.Context, tenantID, warehouseID, productID, qty int64, createMissing bool) (bool, error) {
	if createMissing {
		_, err := r.tx.Exec(ctx, `INSERT INTO stocks (tenant_id, warehouse_id, product_id, quantity)
VALUES ($1,$2,$3,$4)
ON CONFLICT (tenant_id, warehouse_id, product_id) DO UPDATE SET quantity = stocks.quantity + EXCLUDED.quantity, updated_at = NOW()`,
			tenantID, warehouseID, productID, qty)
		if err != nil {
			return false, err
		}
		return true, nil
	}
	cmd, err := r.tx.Exec(ctx, `UPDATE stocks SET quantity = quantity + $4, updated_at = NOW()
WHERE tenant_id=$1 AND warehouse_id=$2 AND product_id=$3`, tenantID, warehouseID, productID, qty)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *txRepository) PostJournal(ctx context.Context, tenantID int64, in ledger.PostingInput) (ledger.JournalEntry, error) {
	return ledger.InsertEntry(ctx, r.tx, tenantID, in)
}

// queryer lets pool and tx share the read helpers.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func saleItemsForSale(ctx context.Context, q queryer, saleID int64) ([]SaleItem, error) {
	rows, err := q.Query(ctx, `SELECT id, sale_id, product_id, quantity, price, cost FROM sale_items WHERE sale_id=$1 ORDER BY id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SaleItem
	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Quantity, &item.Price, &item.Cost); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const returnColumns = `id, tenant_id, invoice_id, token, return_type, reason, notes, items_total, discount_share, refund_amount, status, payment_type, processed_at, processed_by, created_at`

func scanReturn(row pgx.Row) (Return, error) {
	var ret Return
	var processedBy *int64
	err := row.Scan(&ret.ID, &ret.TenantID, &ret.InvoiceID, &ret.Token, &ret.Type, &ret.Reason, &ret.Notes, &ret.ItemsTotal, &ret.DiscountShare, &ret.RefundAmount, &ret.Status, &ret.PaymentType, &ret.ProcessedAt, &processedBy, &ret.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Return{}, ErrReturnNotFound
		}
		return Return{}, err
	}
	if processedBy != nil {
		ret.ProcessedBy = *processedBy
	}
	return ret, nil
}

func collectReturns(rows pgx.Rows) ([]Return, error) {
	var rets []Return
	for rows.Next() {
		var ret Return
		var processedBy *int64
		if err := rows.Scan(&ret.ID, &ret.TenantID, &ret.InvoiceID, &ret.Token, &ret.Type, &ret.Reason, &ret.Notes, &ret.ItemsTotal, &ret.DiscountShare, &ret.RefundAmount, &ret.Status, &ret.PaymentType, &ret.ProcessedAt, &processedBy, &ret.CreatedAt); err != nil {
			return nil, err
		}
		if processedBy != nil {
			ret.ProcessedBy = *processedBy
		}
		rets = append(rets, ret)
	}
	return rets, rows.Err()
}

func listInvoiceReturns(ctx context.Context, q queryer, tenantID, invoiceID int64) ([]Return, error) {
	rows, err := q.Query(ctx, `SELECT `+returnColumns+` FROM returns WHERE tenant_id=$1 AND invoice_id=$2 ORDER BY id`, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rets, err := collectReturns(rows)
	if err != nil {
		return nil, err
	}
	for idx := range rets {
		items, err := returnItems(ctx, q, rets[idx].ID)
		if err != nil {
			return nil, err
		}
		rets[idx].Items = items
	}
	return rets, nil
}

func returnItems(ctx context.Context, q queryer, returnID int64) ([]ReturnItem, error) {
	rows, err := q.Query(ctx, `SELECT id, return_id, product_id, quantity, price, cost FROM return_items WHERE return_id=$1 ORDER BY id`, returnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ReturnItem
	for rows.Next() {
		var item ReturnItem
		if err := rows.Scan(&item.ID, &item.ReturnID, &item.ProductID, &item.Quantity, &item.Price, &item.Cost); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}
