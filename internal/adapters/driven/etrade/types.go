package etrade

import "encoding/xml"

// Wire structs for the vendor's XML responses. Field sets cover what the
// gateway forwards; unknown elements are ignored by the decoder.

type accountListResponse struct {
	XMLName  xml.Name     `xml:"AccountListResponse"`
	Accounts []accountXML `xml:"Accounts>Account"`
}

type accountXML struct {
	AccountID    string `xml:"accountId"`
	AccountIDKey string `xml:"accountIdKey"`
	AccountMode  string `xml:"accountMode"`
	AccountDesc  string `xml:"accountDesc"`
	AccountType  string `xml:"accountType"`
	AccountName  string `xml:"accountName"`
}

type balanceResponse struct {
	XMLName   xml.Name `xml:"BalanceResponse"`
	AccountID string   `xml:"accountId"`
	Computed  struct {
		CashAvailableForInvestment float64 `xml:"cashAvailableForInvestment"`
		CashBuyingPower            float64 `xml:"cashBuyingPower"`
		RealTimeValues             struct {
			TotalAccountValue float64 `xml:"totalAccountValue"`
		} `xml:"RealTimeValues"`
	} `xml:"Computed"`
}

type portfolioResponse struct {
	XMLName   xml.Name      `xml:"PortfolioResponse"`
	Positions []positionXML `xml:"AccountPortfolio>Position"`
}

type positionXML struct {
	Product struct {
		Symbol string `xml:"symbol"`
	} `xml:"Product"`
	Quantity     float64 `xml:"quantity"`
	MarketValue  float64 `xml:"marketValue"`
	TotalGain    float64 `xml:"totalGain"`
	TotalGainPct float64 `xml:"totalGainPct"`
	Quick        struct {
		LastTrade float64 `xml:"lastTrade"`
	} `xml:"Quick"`
}

type quoteResponse struct {
	XMLName xml.Name       `xml:"QuoteResponse"`
	Quotes  []quoteDataXML `xml:"QuoteData"`
}

type quoteDataXML struct {
	Product struct {
		Symbol string `xml:"symbol"`
	} `xml:"Product"`
	All struct {
		LastTrade             float64 `xml:"lastTrade"`
		Bid                   float64 `xml:"bid"`
		Ask                   float64 `xml:"ask"`
		TotalVolume           int64   `xml:"totalVolume"`
		ChangeClose           float64 `xml:"changeClose"`
		ChangeClosePercentage float64 `xml:"changeClosePercentage"`
	} `xml:"All"`
}

type lookupResponse struct {
	XMLName xml.Name        `xml:"LookupResponse"`
	Data    []lookupDataXML `xml:"Data"`
}

type lookupDataXML struct {
	Symbol      string `xml:"symbol"`
	Description string `xml:"description"`
	Type        string `xml:"type"`
}

type ordersResponse struct {
	XMLName xml.Name   `xml:"OrdersResponse"`
	Orders  []orderXML `xml:"Order"`
}

type orderXML struct {
	OrderID   string           `xml:"orderId"`
	OrderType string           `xml:"orderType"`
	Details   []orderDetailXML `xml:"OrderDetail"`
}

type orderDetailXML struct {
	Status      string          `xml:"status"`
	PriceType   string          `xml:"priceType"`
	Instruments []instrumentXML `xml:"Instrument"`
}

type instrumentXML struct {
	Product struct {
		Symbol string `xml:"symbol"`
	} `xml:"Product"`
	OrderedQuantity float64 `xml:"orderedQuantity"`
}

type previewOrderResponse struct {
	XMLName    xml.Name `xml:"PreviewOrderResponse"`
	PreviewIDs []struct {
		PreviewID string `xml:"previewId"`
	} `xml:"PreviewIds"`
}

type placeOrderResponse struct {
	XMLName  xml.Name `xml:"PlaceOrderResponse"`
	OrderIDs []struct {
		OrderID string `xml:"orderId"`
	} `xml:"OrderIds>OrderId"`
}

// JSON request bodies for the order endpoints. The vendor accepts JSON for
// order submission while answering in XML.

type previewOrderRequestJSON struct {
	PreviewOrderRequest orderRequestBodyJSON `json:"PreviewOrderRequest"`
}

type placeOrderRequestJSON struct {
	PlaceOrderRequest orderRequestBodyJSON `json:"PlaceOrderRequest"`
}

type cancelOrderRequestJSON struct {
	CancelOrderRequest struct {
		OrderID string `json:"orderId"`
	} `json:"CancelOrderRequest"`
}

type orderRequestBodyJSON struct {
	OrderType     string           `json:"orderType"`
	ClientOrderID string           `json:"clientOrderId"`
	PreviewIDs    []previewIDJSON  `json:"PreviewIds,omitempty"`
	Order         []orderEntryJSON `json:"Order"`
}

type previewIDJSON struct {
	PreviewID string `json:"previewId"`
}

type orderEntryJSON struct {
	AllOrNone     string          `json:"allOrNone"`
	PriceType     string          `json:"priceType"`
	OrderTerm     string          `json:"orderTerm"`
	MarketSession string          `json:"marketSession"`
	LimitPrice    string          `json:"limitPrice,omitempty"`
	StopPrice     string          `json:"stopPrice,omitempty"`
	Instrument    []orderItemJSON `json:"Instrument"`
}

type orderItemJSON struct {
	Product      productJSON `json:"Product"`
	OrderAction  string      `json:"orderAction"`
	QuantityType string      `json:"quantityType"`
	Quantity     string      `json:"quantity"`
}

type productJSON struct {
	SecurityType string `json:"securityType"`
	Symbol       string `json:"symbol"`
}
