package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BalanceSheetAccount summarises an account for assets, liabilities, or equity.
type BalanceSheetAccount struct {
	Code    string
	Name    string
	Balance decimal.Decimal
}

// BalanceSheetSection contains the accounts and total for a classification.
type BalanceSheetSection struct {
	Label    string
	Accounts []BalanceSheetAccount
	Total    decimal.Decimal
}

// BalanceSheet is the structured response for the balance sheet report.
type BalanceSheet struct {
	Assets           BalanceSheetSection
	Liabilities      BalanceSheetSection
	Equity           BalanceSheetSection
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	TotalEquity      decimal.Decimal
	IsBalanced       bool
}

// BuildBalanceSheet aggregates signed balances into sections and checks the
// accounting identity. Net income (revenue minus expense) belongs to the
// owners and is rolled into equity as current earnings; without that row the
// identity cannot hold before period closing.
func BuildBalanceSheet(balances []AccountBalance) BalanceSheet {
	assets := BalanceSheetSection{Label: "Assets", Total: decimal.Zero}
	liabilities := BalanceSheetSection{Label: "Liabilities", Total: decimal.Zero}
	equity := BalanceSheetSection{Label: "Equity", Total: decimal.Zero}
	earnings := decimal.Zero

	for _, b := range balances {
		row := BalanceSheetAccount{Code: b.Code, Name: b.Name, Balance: b.Balance()}
		switch b.Type {
		case AccountTypeAsset:
			assets.Accounts = append(assets.Accounts, row)
			assets.Total = assets.Total.Add(row.Balance)
		case AccountTypeLiability:
			liabilities.Accounts = append(liabilities.Accounts, row)
			liabilities.Total = liabilities.Total.Add(row.Balance)
		case AccountTypeEquity:
			equity.Accounts = append(equity.Accounts, row)
			equity.Total = equity.Total.Add(row.Balance)
		case AccountTypeRevenue:
			earnings = earnings.Add(row.Balance)
		case AccountTypeExpense:
			earnings = earnings.Sub(row.Balance)
		}
	}

	equity.Accounts = append(equity.Accounts, BalanceSheetAccount{
		Code:    "3900",
		Name:    "Current Earnings",
		Balance: earnings,
	})
	equity.Total = equity.Total.Add(earnings)

	sortSection(&assets)
	sortSection(&liabilities)
	sortSection(&equity)

	return BalanceSheet{
		Assets:           assets,
		Liabilities:      liabilities,
		Equity:           equity,
		TotalAssets:      assets.Total,
		TotalLiabilities: liabilities.Total,
		TotalEquity:      equity.Total,
		IsBalanced:       assets.Total.Equal(liabilities.Total.Add(equity.Total)),
	}
}

func sortSection(s *BalanceSheetSection) {
	sort.Slice(s.Accounts, func(i, j int) bool { return s.Accounts[i].Code < s.Accounts[j].Code })
}
