package domain

// Quote is a market quote for a single symbol.
type Quote struct {
	Symbol         string  `json:"symbol"`
	LastTrade      float64 `json:"lastTrade"`
	Bid            float64 `json:"bid"`
	Ask            float64 `json:"ask"`
	TotalVolume    int64   `json:"totalVolume"`
	ChangeClose    float64 `json:"changeClose"`
	ChangeClosePct float64 `json:"changeClosePercentage"`
}

// LookupResult is one match from a symbol search.
type LookupResult struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Type        string `json:"type"`
}
