package ledger

import "errors"

var (
	// ErrUnbalanced indicates total debits != total credits.
	ErrUnbalanced = errors.New("ledger: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: journal requires at least two lines")
	// ErrNonPositiveAmount indicates a line amount <= 0.
	ErrNonPositiveAmount = errors.New("ledger: line amount must be positive")
	// ErrUnknownAccount indicates a line references a code outside the chart.
	ErrUnknownAccount = errors.New("ledger: unknown account code")
	// ErrAccountNotFound indicates a missing account for the tenant.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrJournalNotFound indicates a missing entry.
	ErrJournalNotFound = errors.New("ledger: journal entry not found")
)
