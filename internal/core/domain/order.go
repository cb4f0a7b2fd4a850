package domain

// Order action and price-type values accepted by the vendor. Passed through
// unmodified; the gateway does not interpret brokerage semantics.
const (
	OrderActionBuy  = "BUY"
	OrderActionSell = "SELL"

	PriceTypeMarket = "MARKET"
	PriceTypeLimit  = "LIMIT"

	OrderTermGoodForDay = "GOOD_FOR_DAY"
)

// Order is one order as returned by the orders list.
type Order struct {
	OrderID   string  `json:"orderId"`
	OrderType string  `json:"orderType"`
	Status    string  `json:"status,omitempty"`
	Symbol    string  `json:"symbol,omitempty"`
	Quantity  float64 `json:"quantity,omitempty"`
	PriceType string  `json:"priceType,omitempty"`
}

// OrderRequest describes an equity order to preview or place.
type OrderRequest struct {
	Symbol     string  `json:"symbol"`
	Action     string  `json:"action"`
	Quantity   int     `json:"quantity"`
	PriceType  string  `json:"price_type,omitempty"`
	LimitPrice float64 `json:"limit_price,omitempty"`
	StopPrice  float64 `json:"stop_price,omitempty"`
	OrderTerm  string  `json:"order_term,omitempty"`
}

// Validate checks the fields the vendor will reject anyway, so callers get a
// clean input error instead of a signed round trip.
func (r *OrderRequest) Validate() error {
	if r.Symbol == "" || r.Action == "" || r.Quantity <= 0 {
		return ErrInvalidInput
	}
	return nil
}

// Normalize fills vendor defaults for omitted optional fields.
func (r *OrderRequest) Normalize() {
	if r.PriceType == "" {
		r.PriceType = PriceTypeMarket
	}
	if r.OrderTerm == "" {
		r.OrderTerm = OrderTermGoodForDay
	}
}

// OrderPreview is the vendor's answer to an order preview; the preview ID
// and client order ID are both required to place the order.
type OrderPreview struct {
	PreviewID     string `json:"previewId"`
	ClientOrderID string `json:"clientOrderId"`
}

// PlaceOrderRequest places a previously previewed order.
type PlaceOrderRequest struct {
	OrderRequest

	PreviewID     string `json:"preview_id"`
	ClientOrderID string `json:"client_order_id"`
}

// Validate checks the preview linkage on top of the base order fields.
func (r *PlaceOrderRequest) Validate() error {
	if err := r.OrderRequest.Validate(); err != nil {
		return err
	}
	if r.PreviewID == "" || r.ClientOrderID == "" {
		return ErrInvalidInput
	}
	return nil
}

// PlacedOrder is the confirmation for a placed order.
type PlacedOrder struct {
	OrderID string `json:"orderId"`
}
