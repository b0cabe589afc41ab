package ledger

// Fixed chart of accounts codes. Every tenant is provisioned with this chart;
// the return processor and the integrity scan address accounts by code only.
const (
	AccountCash               = "1000"
	AccountBank               = "1010"
	AccountDeferredReceivable = "1100"
	AccountInventory          = "1200"
	AccountAccountsPayable    = "2000"
	AccountTaxPayable         = "2100"
	AccountOwnerEquity        = "3000"
	AccountRetainedEarnings   = "3100"
	AccountSalesRevenue       = "4000"
	AccountCostOfGoodsSold    = "5000"
)

type chartEntry struct {
	Code string
	Name string
	Type AccountType
}

var defaultChart = []chartEntry{
	{AccountCash, "Cash on Hand", AccountTypeAsset},
	{AccountBank, "Bank", AccountTypeAsset},
	{AccountDeferredReceivable, "Deferred Receivable", AccountTypeAsset},
	{AccountInventory, "Inventory", AccountTypeAsset},
	{AccountAccountsPayable, "Accounts Payable", AccountTypeLiability},
	{AccountTaxPayable, "Tax Payable", AccountTypeLiability},
	{AccountOwnerEquity, "Owner Equity", AccountTypeEquity},
	{AccountRetainedEarnings, "Retained Earnings", AccountTypeEquity},
	{AccountSalesRevenue, "Sales Revenue", AccountTypeRevenue},
	{AccountCostOfGoodsSold, "Cost of Goods Sold", AccountTypeExpense},
}

// DefaultChart returns the fixed chart used to provision a tenant.
func DefaultChart() []Account {
	out := make([]Account, 0, len(defaultChart))
	for _, e := range defaultChart {
		out = append(out, Account{Code: e.Code, Name: e.Name, Type: e.Type, IsActive: true})
	}
	return out
}

// ClassificationOf resolves the account type for a chart code. The boolean is
// false for codes outside the fixed chart.
func ClassificationOf(code string) (AccountType, bool) {
	for _, e := range defaultChart {
		if e.Code == code {
			return e.Type, true
		}
	}
	return "", false
}
