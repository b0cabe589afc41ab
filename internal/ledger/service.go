package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records audit events for posted entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates ledger reads and journal posting.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService builds the ledger service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the service clock for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Accounts lists the tenant's chart of accounts.
func (s *Service) Accounts(ctx context.Context, tenantID int64) ([]Account, error) {
	return s.repo.ListAccounts(ctx, tenantID)
}

// Ledger replays an account's transaction lines into a running balance and
// the transaction history.
func (s *Service) Ledger(ctx context.Context, tenantID, accountID int64) (LedgerView, error) {
	account, err := s.repo.GetAccount(ctx, tenantID, accountID)
	if err != nil {
		return LedgerView{}, err
	}
	lines, err := s.repo.LedgerLines(ctx, tenantID, accountID)
	if err != nil {
		return LedgerView{}, err
	}
	txs, balance := FoldLedger(account.Type, lines)
	return LedgerView{Account: account, Balance: balance, Transactions: txs}, nil
}

// BalanceSheet groups signed account balances by classification and asserts
// the accounting identity.
func (s *Service) BalanceSheet(ctx context.Context, tenantID int64) (BalanceSheet, error) {
	balances, err := s.repo.AccountBalances(ctx, tenantID)
	if err != nil {
		return BalanceSheet{}, err
	}
	return BuildBalanceSheet(balances), nil
}

// Post validates and persists one balanced journal entry atomically. Entries
// are immutable once posted; corrections are separate reversing entries.
func (s *Service) Post(ctx context.Context, tenantID int64, input PostingInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := tx.InsertEntry(ctx, tenantID, input)
		if err != nil {
			return err
		}
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: tenantID,
			ActorID:  input.PostedBy,
			Action:   "journal.post",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta: map[string]any{
				"number":        entry.Number,
				"source_module": input.SourceModule,
				"source_id":     input.SourceID.String(),
			},
			At: s.now(),
		})
	}
	return entry, nil
}
