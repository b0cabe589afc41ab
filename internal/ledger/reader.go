package ledger

import "github.com/shopspring/decimal"

// NormalSide returns the side that increases balances of the given
// classification. ASSET and EXPENSE accounts grow on debit; LIABILITY,
// EQUITY and REVENUE grow on credit.
func NormalSide(t AccountType) EntryType {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return EntryTypeDebit
	default:
		return EntryTypeCredit
	}
}

// SignedBalance folds debit and credit totals into the classification-signed
// balance. All balance consumers (ledger view, balance sheet, financial
// summaries) go through this one function so the sign convention cannot
// drift between screens.
func SignedBalance(t AccountType, debit, credit decimal.Decimal) decimal.Decimal {
	if NormalSide(t) == EntryTypeDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// lineEffect is the signed contribution of one line to an account balance.
func lineEffect(t AccountType, side EntryType, amount decimal.Decimal) decimal.Decimal {
	if side == NormalSide(t) {
		return amount
	}
	return amount.Neg()
}

// FoldLedger replays transactions into running balances and the closing
// balance. The balance is always this deterministic fold, never a separately
// maintained counter.
func FoldLedger(t AccountType, txs []LedgerTransaction) ([]LedgerTransaction, decimal.Decimal) {
	running := decimal.Zero
	out := make([]LedgerTransaction, 0, len(txs))
	for _, tx := range txs {
		running = running.Add(lineEffect(t, tx.Type, tx.Amount))
		tx.Running = running
		out = append(out, tx)
	}
	return out, running
}

// Balance computes the closing balance for an account's classification.
func (b AccountBalance) Balance() decimal.Decimal {
	return SignedBalance(b.Type, b.Debit, b.Credit)
}
