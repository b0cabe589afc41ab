package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType enumerates chart of accounts classifications.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Account models a chart of accounts node.
type Account struct {
	ID        int64
	TenantID  int64
	Code      string
	Name      string
	Type      AccountType
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntryType is the side of a journal line.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// JournalEntry captures one balanced accounting event.
type JournalEntry struct {
	ID           int64
	TenantID     int64
	Number       int64
	Description  string
	SourceModule string
	SourceID     uuid.UUID
	Date         time.Time
	PostedBy     int64
	CreatedAt    time.Time
	Lines        []JournalLine
}

// JournalLine stores one debit or credit against an account. Amount is
// always positive; the side is carried by Type.
type JournalLine struct {
	ID          int64
	JournalID   int64
	AccountID   int64
	AccountCode string
	Type        EntryType
	Amount      decimal.Decimal
	CreatedAt   time.Time
}

// LedgerView is the reader's response for one account.
type LedgerView struct {
	Account      Account
	Balance      decimal.Decimal
	Transactions []LedgerTransaction
}

// LedgerTransaction is one journal line seen from an account's perspective,
// with the running balance after applying it.
type LedgerTransaction struct {
	JournalID   int64
	Number      int64
	Date        time.Time
	Description string
	Type        EntryType
	Amount      decimal.Decimal
	Running     decimal.Decimal
}

// AccountBalance aggregates one account's debit and credit totals.
type AccountBalance struct {
	AccountID int64
	Code      string
	Name      string
	Type      AccountType
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}
