package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository encapsulates DB operations for the ledger.
type Repository interface {
	ListAccounts(ctx context.Context, tenantID int64) ([]Account, error)
	GetAccount(ctx context.Context, tenantID, accountID int64) (Account, error)
	LedgerLines(ctx context.Context, tenantID, accountID int64) ([]LedgerTransaction, error)
	AccountBalances(ctx context.Context, tenantID int64) ([]AccountBalance, error)
	ListEntries(ctx context.Context, tenantID int64, limit, offset int) ([]JournalEntry, error)
	ProvisionChart(ctx context.Context, tenantID int64) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	InsertEntry(ctx context.Context, tenantID int64, in PostingInput) (JournalEntry, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed ledger repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListAccounts(ctx context.Context, tenantID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT id, tenant_id, code, name, type, is_active, created_at, updated_at
FROM accounts WHERE tenant_id=$1 ORDER BY code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) GetAccount(ctx context.Context, tenantID, accountID int64) (Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `SELECT id, tenant_id, code, name, type, is_active, created_at, updated_at
FROM accounts WHERE tenant_id=$1 AND id=$2`, tenantID, accountID).
		Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) LedgerLines(ctx context.Context, tenantID, accountID int64) ([]LedgerTransaction, error) {
	rows, err := r.db.Query(ctx, `SELECT e.id, e.number, e.date, e.description, l.entry_type, l.amount
FROM journal_lines l
JOIN journal_entries e ON e.id = l.je_id
WHERE e.tenant_id=$1 AND l.account_id=$2
ORDER BY e.id ASC, l.id ASC`, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txs []LedgerTransaction
	for rows.Next() {
		var t LedgerTransaction
		if err := rows.Scan(&t.JournalID, &t.Number, &t.Date, &t.Description, &t.Type, &t.Amount); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *repository) AccountBalances(ctx context.Context, tenantID int64) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT a.id, a.code, a.name, a.type,
COALESCE(SUM(l.amount) FILTER (WHERE l.entry_type='DEBIT'), 0),
COALESCE(SUM(l.amount) FILTER (WHERE l.entry_type='CREDIT'), 0)
FROM accounts a
LEFT JOIN journal_lines l ON l.account_id = a.id
WHERE a.tenant_id=$1
GROUP BY a.id, a.code, a.name, a.type
ORDER BY a.code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var balances []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Type, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (r *repository) ListEntries(ctx context.Context, tenantID int64, limit, offset int) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, tenant_id, number, description, source_module, source_id, date, posted_by, created_at
FROM journal_entries WHERE tenant_id=$1 ORDER BY number DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Number, &e.Description, &e.SourceModule, &e.SourceID, &e.Date, &e.PostedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ProvisionChart upserts the fixed chart for a tenant. Idempotent.
func (r *repository) ProvisionChart(ctx context.Context, tenantID int64) error {
	for _, acc := range DefaultChart() {
		_, err := r.db.Exec(ctx, `INSERT INTO accounts (tenant_id, code, name, type, is_active)
VALUES ($1,$2,$3,$4,TRUE)
ON CONFLICT (tenant_id, code) DO NOTHING`, tenantID, acc.Code, acc.Name, acc.Type)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
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

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertEntry(ctx context.Context, tenantID int64, in PostingInput) (JournalEntry, error) {
	return InsertEntry(ctx, r.tx, tenantID, in)
}

// InsertEntry validates and writes one journal entry with its lines on the
// given transaction. It is the single write path into the ledger: the return
// processor calls it from inside its own transaction so the entry commits or
// rolls back together with the return.
func InsertEntry(ctx context.Context, tx pgx.Tx, tenantID int64, in PostingInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	ids, err := accountIDsByCode(ctx, tx, tenantID, in.Lines)
	if err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	entry.TenantID = tenantID
	entry.Description = in.Description
	entry.SourceModule = in.SourceModule
	entry.SourceID = in.SourceID
	entry.Date = in.Date
	entry.PostedBy = in.PostedBy
	err = tx.QueryRow(ctx, `INSERT INTO journal_entries (tenant_id, description, source_module, source_id, date, posted_by)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, number, created_at`,
		tenantID, in.Description, in.SourceModule, in.SourceID, in.Date, in.PostedBy).
		Scan(&entry.ID, &entry.Number, &entry.CreatedAt)
	if err != nil {
		return JournalEntry{}, err
	}
	for _, line := range in.Lines {
		accountID := ids[line.AccountCode]
		var lineID int64
		err := tx.QueryRow(ctx, `INSERT INTO journal_lines (je_id, account_id, entry_type, amount)
VALUES ($1,$2,$3,$4) RETURNING id`, entry.ID, accountID, line.Type, line.Amount).Scan(&lineID)
		if err != nil {
			return JournalEntry{}, err
		}
		entry.Lines = append(entry.Lines, JournalLine{
			ID:          lineID,
			JournalID:   entry.ID,
			AccountID:   accountID,
			AccountCode: line.AccountCode,
			Type:        line.Type,
			Amount:      line.Amount,
		})
	}
	return entry, nil
}

func accountIDsByCode(ctx context.Context, tx pgx.Tx, tenantID int64, lines []PostingLineInput) (map[string]int64, error) {
	codes := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if !seen[line.AccountCode] {
			seen[line.AccountCode] = true
			codes = append(codes, line.AccountCode)
		}
	}
	rows, err := tx.Query(ctx, `SELECT id, code FROM accounts WHERE tenant_id=$1 AND code = ANY($2)`, tenantID, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make(map[string]int64, len(codes))
	for rows.Next() {
		var id int64
		var code string
		if err := rows.Scan(&id, &code); err != nil {
			return nil, err
		}
		ids[code] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, code := range codes {
		if _, ok := ids[code]; !ok {
			return nil, fmt.Errorf("%w: code %q for tenant %d", ErrAccountNotFound, code, tenantID)
		}
	}
	return ids, nil
}
