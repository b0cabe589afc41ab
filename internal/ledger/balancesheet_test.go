package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// balancesAfterSaleAndReturn mirrors the postings of a 900-total sale
// followed by a partial return refunding 180 with 120 of restored cost.
func balancesAfterSaleAndReturn() []AccountBalance {
	return []AccountBalance{
		{Code: AccountCash, Name: "Cash on Hand", Type: AccountTypeAsset, Debit: dec("900"), Credit: dec("180")},
		{Code: AccountInventory, Name: "Inventory", Type: AccountTypeAsset, Debit: dec("120"), Credit: dec("500")},
		{Code: AccountSalesRevenue, Name: "Sales Revenue", Type: AccountTypeRevenue, Debit: dec("180"), Credit: dec("900")},
		{Code: AccountCostOfGoodsSold, Name: "Cost of Goods Sold", Type: AccountTypeExpense, Debit: dec("500"), Credit: dec("120")},
	}
}

func TestBuildBalanceSheetIdentity(t *testing.T) {
	bs := BuildBalanceSheet(balancesAfterSaleAndReturn())

	// Assets: cash 720 + inventory -380 = 340.
	require.True(t, dec("340").Equal(bs.TotalAssets))
	require.True(t, decimal.Zero.Equal(bs.TotalLiabilities))
	// Earnings: revenue 720 - expense 380 = 340, all of equity here.
	require.True(t, dec("340").Equal(bs.TotalEquity))
	require.True(t, bs.IsBalanced)
}

func TestBuildBalanceSheetCurrentEarningsRow(t *testing.T) {
	bs := BuildBalanceSheet(balancesAfterSaleAndReturn())

	var earnings *BalanceSheetAccount
	for idx := range bs.Equity.Accounts {
		if bs.Equity.Accounts[idx].Code == "3900" {
			earnings = &bs.Equity.Accounts[idx]
		}
	}
	require.NotNil(t, earnings)
	require.Equal(t, "Current Earnings", earnings.Name)
	require.True(t, dec("340").Equal(earnings.Balance))

	// Revenue and expense accounts never appear as their own rows.
	for _, section := range []BalanceSheetSection{bs.Assets, bs.Liabilities, bs.Equity} {
		for _, row := range section.Accounts {
			require.NotEqual(t, AccountSalesRevenue, row.Code)
			require.NotEqual(t, AccountCostOfGoodsSold, row.Code)
		}
	}
}

func TestBuildBalanceSheetSectionsSortedByCode(t *testing.T) {
	balances := []AccountBalance{
		{Code: AccountInventory, Name: "Inventory", Type: AccountTypeAsset, Debit: dec("10")},
		{Code: AccountCash, Name: "Cash on Hand", Type: AccountTypeAsset, Debit: dec("5")},
		{Code: AccountBank, Name: "Bank", Type: AccountTypeAsset, Debit: dec("7")},
	}
	bs := BuildBalanceSheet(balances)
	require.Len(t, bs.Assets.Accounts, 3)
	require.Equal(t, AccountCash, bs.Assets.Accounts[0].Code)
	require.Equal(t, AccountBank, bs.Assets.Accounts[1].Code)
	require.Equal(t, AccountInventory, bs.Assets.Accounts[2].Code)
}

func TestBuildBalanceSheetEmpty(t *testing.T) {
	bs := BuildBalanceSheet(nil)
	require.True(t, bs.TotalAssets.IsZero())
	require.True(t, bs.TotalEquity.IsZero())
	require.True(t, bs.IsBalanced)
	// The earnings row is present even with no activity.
	require.Len(t, bs.Equity.Accounts, 1)
}

func TestBuildBalanceSheetWithLiabilities(t *testing.T) {
	balances := []AccountBalance{
		{Code: AccountCash, Name: "Cash on Hand", Type: AccountTypeAsset, Debit: dec("1000")},
		{Code: AccountAccountsPayable, Name: "Accounts Payable", Type: AccountTypeLiability, Credit: dec("400")},
		{Code: AccountOwnerEquity, Name: "Owner Equity", Type: AccountTypeEquity, Credit: dec("600")},
	}
	bs := BuildBalanceSheet(balances)
	require.True(t, dec("1000").Equal(bs.TotalAssets))
	require.True(t, dec("400").Equal(bs.TotalLiabilities))
	require.True(t, dec("600").Equal(bs.TotalEquity))
	require.True(t, bs.IsBalanced)
}
