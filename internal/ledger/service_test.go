package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// memoryLedger keeps accounts and entries in maps, deriving balances and
// ledger lines the same way the SQL queries do.
type memoryLedger struct {
	tenantID int64
	accounts []Account
	entries  []JournalEntry
}

func newMemoryLedger(tenantID int64) *memoryLedger {
	repo := &memoryLedger{tenantID: tenantID}
	for idx, acc := range DefaultChart() {
		acc.ID = int64(idx + 1)
		acc.TenantID = tenantID
		repo.accounts = append(repo.accounts, acc)
	}
	return repo
}

func (r *memoryLedger) accountByCode(code string) (Account, bool) {
	for _, acc := range r.accounts {
		if acc.Code == code {
			return acc, true
		}
	}
	return Account{}, false
}

func (r *memoryLedger) ListAccounts(_ context.Context, tenantID int64) ([]Account, error) {
	if tenantID != r.tenantID {
		return nil, nil
	}
	return append([]Account(nil), r.accounts...), nil
}

func (r *memoryLedger) GetAccount(_ context.Context, tenantID, accountID int64) (Account, error) {
	for _, acc := range r.accounts {
		if acc.TenantID == tenantID && acc.ID == accountID {
			return acc, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (r *memoryLedger) LedgerLines(_ context.Context, tenantID, accountID int64) ([]LedgerTransaction, error) {
	var txs []LedgerTransaction
	for _, entry := range r.entries {
		if entry.TenantID != tenantID {
			continue
		}
		for _, line := range entry.Lines {
			if line.AccountID == accountID {
				txs = append(txs, LedgerTransaction{
					JournalID:   entry.ID,
					Number:      entry.Number,
					Date:        entry.Date,
					Description: entry.Description,
					Type:        line.Type,
					Amount:      line.Amount,
				})
			}
		}
	}
	return txs, nil
}

func (r *memoryLedger) AccountBalances(_ context.Context, tenantID int64) ([]AccountBalance, error) {
	balances := make([]AccountBalance, 0, len(r.accounts))
	for _, acc := range r.accounts {
		b := AccountBalance{AccountID: acc.ID, Code: acc.Code, Name: acc.Name, Type: acc.Type}
		for _, entry := range r.entries {
			if entry.TenantID != tenantID {
				continue
			}
			for _, line := range entry.Lines {
				if line.AccountID != acc.ID {
					continue
				}
				if line.Type == EntryTypeDebit {
					b.Debit = b.Debit.Add(line.Amount)
				} else {
					b.Credit = b.Credit.Add(line.Amount)
				}
			}
		}
		balances = append(balances, b)
	}
	return balances, nil
}

func (r *memoryLedger) ListEntries(_ context.Context, tenantID int64, limit, offset int) ([]JournalEntry, error) {
	var out []JournalEntry
	for _, entry := range r.entries {
		if entry.TenantID == tenantID {
			out = append(out, entry)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r *memoryLedger) ProvisionChart(context.Context, int64) error { return nil }

func (r *memoryLedger) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryLedgerTx{repo: r})
}

type memoryLedgerTx struct {
	repo *memoryLedger
}

func (t *memoryLedgerTx) InsertEntry(_ context.Context, tenantID int64, in PostingInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	entry := JournalEntry{
		ID:           int64(len(t.repo.entries) + 1),
		TenantID:     tenantID,
		Number:       int64(len(t.repo.entries) + 1),
		Description:  in.Description,
		SourceModule: in.SourceModule,
		SourceID:     in.SourceID,
		Date:         in.Date,
		PostedBy:     in.PostedBy,
	}
	for _, line := range in.Lines {
		acc, ok := t.repo.accountByCode(line.AccountCode)
		if !ok {
			return JournalEntry{}, ErrAccountNotFound
		}
		entry.Lines = append(entry.Lines, JournalLine{
			JournalID:   entry.ID,
			AccountID:   acc.ID,
			AccountCode: line.AccountCode,
			Type:        line.Type,
			Amount:      line.Amount,
		})
	}
	t.repo.entries = append(t.repo.entries, entry)
	return entry, nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func salePosting() PostingInput {
	return PostingInput{
		Description:  "Invoice INV-2602-0001",
		SourceModule: "sales",
		SourceID:     uuid.New(),
		Date:         time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		PostedBy:     9,
		Lines: []PostingLineInput{
			{AccountCode: AccountCash, Type: EntryTypeDebit, Amount: dec("900")},
			{AccountCode: AccountSalesRevenue, Type: EntryTypeCredit, Amount: dec("900")},
			{AccountCode: AccountCostOfGoodsSold, Type: EntryTypeDebit, Amount: dec("500")},
			{AccountCode: AccountInventory, Type: EntryTypeCredit, Amount: dec("500")},
		},
	}
}

func refundPosting() PostingInput {
	return PostingInput{
		Description:  "Return RET-2602-0001 against invoice 10",
		SourceModule: "returns",
		SourceID:     uuid.New(),
		Date:         time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		PostedBy:     9,
		Lines: []PostingLineInput{
			{AccountCode: AccountSalesRevenue, Type: EntryTypeDebit, Amount: dec("180")},
			{AccountCode: AccountCash, Type: EntryTypeCredit, Amount: dec("180")},
			{AccountCode: AccountInventory, Type: EntryTypeDebit, Amount: dec("120")},
			{AccountCode: AccountCostOfGoodsSold, Type: EntryTypeCredit, Amount: dec("120")},
		},
	}
}

func TestServicePostRecordsAudit(t *testing.T) {
	repo := newMemoryLedger(1)
	audit := &recordingAudit{}
	svc := NewService(repo, audit)

	entry, err := svc.Post(context.Background(), 1, salePosting())
	require.NoError(t, err)
	require.Len(t, entry.Lines, 4)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "journal.post", audit.logs[0].Action)
}

func TestServicePostRejectsUnbalanced(t *testing.T) {
	repo := newMemoryLedger(1)
	svc := NewService(repo, nil)

	in := salePosting()
	in.Lines[0].Amount = dec("901")
	_, err := svc.Post(context.Background(), 1, in)
	require.ErrorIs(t, err, ErrUnbalanced)
	require.Empty(t, repo.entries)
}

func TestServiceLedgerRunningBalance(t *testing.T) {
	repo := newMemoryLedger(1)
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Post(ctx, 1, salePosting())
	require.NoError(t, err)
	_, err = svc.Post(ctx, 1, refundPosting())
	require.NoError(t, err)

	cash, _ := repo.accountByCode(AccountCash)
	view, err := svc.Ledger(ctx, 1, cash.ID)
	require.NoError(t, err)
	require.Len(t, view.Transactions, 2)
	require.True(t, dec("900").Equal(view.Transactions[0].Running))
	require.True(t, dec("720").Equal(view.Transactions[1].Running))
	require.True(t, dec("720").Equal(view.Balance))
}

func TestServiceLedgerUnknownAccount(t *testing.T) {
	svc := NewService(newMemoryLedger(1), nil)
	_, err := svc.Ledger(context.Background(), 1, 999)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestServiceBalanceSheetAfterSaleAndReturn(t *testing.T) {
	repo := newMemoryLedger(1)
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Post(ctx, 1, salePosting())
	require.NoError(t, err)
	_, err = svc.Post(ctx, 1, refundPosting())
	require.NoError(t, err)

	bs, err := svc.BalanceSheet(ctx, 1)
	require.NoError(t, err)
	require.True(t, bs.IsBalanced)
	require.True(t, dec("340").Equal(bs.TotalAssets))
	require.True(t, dec("340").Equal(bs.TotalEquity))
}
