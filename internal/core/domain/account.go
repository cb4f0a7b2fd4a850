package domain

// Account is one brokerage account as returned by the accounts list.
type Account struct {
	AccountID    string `json:"accountId"`
	AccountIDKey string `json:"accountIdKey"`
	AccountMode  string `json:"accountMode,omitempty"`
	AccountDesc  string `json:"accountDesc"`
	AccountType  string `json:"accountType"`
	AccountName  string `json:"accountName,omitempty"`
}

// Balance holds the computed balance figures for an account.
type Balance struct {
	AccountIDKey               string  `json:"accountIdKey"`
	CashAvailableForInvestment float64 `json:"cashAvailableForInvestment"`
	CashBuyingPower            float64 `json:"cashBuyingPower"`
	TotalAccountValue          float64 `json:"totalAccountValue"`
}

// Position is one holding in an account portfolio.
type Position struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	LastTrade    float64 `json:"price"`
	MarketValue  float64 `json:"marketValue"`
	TotalGain    float64 `json:"gain"`
	TotalGainPct float64 `json:"gainPct"`
}

// AccountSummary combines an account with its cash balance and positions.
type AccountSummary struct {
	Account        Account    `json:"account"`
	Cash           float64    `json:"cash"`
	PortfolioValue float64    `json:"portfolioValue"`
	TotalValue     float64    `json:"totalValue"`
	TotalGain      float64    `json:"totalGain"`
	Positions      []Position `json:"positions"`
}

// SummaryTotals aggregates balance figures across all accounts.
type SummaryTotals struct {
	Cash           float64 `json:"cash"`
	PortfolioValue float64 `json:"portfolioValue"`
	TotalValue     float64 `json:"totalValue"`
	TotalGain      float64 `json:"totalGain"`
}

// Summary is the all-accounts overview: every account with its balance and
// positions, plus grand totals.
type Summary struct {
	Accounts []AccountSummary `json:"accounts"`
	Totals   SummaryTotals    `json:"totals"`
}
