package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostingLineInput describes a journal line for a posting request.
type PostingLineInput struct {
	AccountCode string
	Type        EntryType
	Amount      decimal.Decimal
}

// PostingInput groups fields required to create a journal entry.
type PostingInput struct {
	Description  string
	SourceModule string
	SourceID     uuid.UUID
	Date         time.Time
	PostedBy     int64
	Lines        []PostingLineInput
}

// Validate enforces the balance invariant before any write. An entry that
// fails here is a caller bug, never a persisted state.
func (in PostingInput) Validate() error {
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	if in.SourceModule == "" {
		return errors.New("ledger: source module required")
	}
	if in.SourceID == uuid.Nil {
		return errors.New("ledger: source id required")
	}
	debit := decimal.Zero
	credit := decimal.Zero
	for idx, line := range in.Lines {
		if _, ok := ClassificationOf(line.AccountCode); !ok {
			return fmt.Errorf("%w: line %d code %q", ErrUnknownAccount, idx, line.AccountCode)
		}
		if line.Amount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: line %d", ErrNonPositiveAmount, idx)
		}
		switch line.Type {
		case EntryTypeDebit:
			debit = debit.Add(line.Amount)
		case EntryTypeCredit:
			credit = credit.Add(line.Amount)
		default:
			return fmt.Errorf("ledger: line %d has unknown type %q", idx, line.Type)
		}
	}
	if !debit.Equal(credit) {
		return fmt.Errorf("%w: debit %s credit %s", ErrUnbalanced, debit, credit)
	}
	return nil
}
