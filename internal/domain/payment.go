package domain

import "time"

// Payment is one settlement transaction row. Payments are keyed uniquely by
// PaymentID; several rows may share an OrderID when the marketplace settles an
// order across multiple transactions.
type Payment struct {
	ID                    int64      `json:"id"`
	PaymentID             string     `json:"payment_id"`
	OrderID               string     `json:"order_id"`
	SupplierSKU           string     `json:"supplier_sku,omitempty"`
	Amount                *float64   `json:"amount,omitempty"`
	PaymentDateTime       *time.Time `json:"payment_date_time,omitempty"`
	OrderDateTime         *time.Time `json:"order_date_time,omitempty"`
	OrderStatus           string     `json:"order_status"`
	Quantity              *int       `json:"quantity,omitempty"`
	ProductName           string     `json:"product_name,omitempty"`
	TransactionID         string     `json:"transaction_id,omitempty"`
	FinalSettlementAmount *float64   `json:"final_settlement_amount,omitempty"`
	PriceType             string     `json:"price_type,omitempty"`
	DispatchDate          *time.Time `json:"dispatch_date,omitempty"`
	ProductGSTPercent     *float64   `json:"product_gst_percent,omitempty"`
	ListingPriceInclTaxes *float64   `json:"listing_price_incl_taxes,omitempty"`
}

// SettlementValue returns the amount this payment row contributes to the
// aggregated settlement for its order: the final settlement amount when
// present, otherwise the plain amount. Nil means the row contributes nothing.
func (p Payment) SettlementValue() *float64 {
	if p.FinalSettlementAmount != nil {
		return p.FinalSettlementAmount
	}
	return p.Amount
}
