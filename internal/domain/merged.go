package domain

import "time"

// StatusSource records which input supplied an order's resolved status.
type StatusSource string

const (
	StatusSourceOrderFile   StatusSource = "ORDER_FILE"
	StatusSourcePaymentFile StatusSource = "PAYMENT_FILE"
	StatusSourceMerged      StatusSource = "MERGED"
)

// MergedRecord is one reconciled row per distinct order id observed in either
// the orders or payments table. The whole merged table is rebuilt from scratch
// on every reconciliation run; rows are never updated in place.
type MergedRecord struct {
	ID               int64        `json:"id"`
	OrderID          string       `json:"order_id"`
	OrderAmount      *float64     `json:"order_amount,omitempty"`
	SettlementAmount float64      `json:"settlement_amount"`
	OrderStatus      string       `json:"order_status"`
	StatusSource     StatusSource `json:"status_source"`
	SKUID            string       `json:"sku_id,omitempty"`
	OrderDate        *time.Time   `json:"order_date,omitempty"`
	PaymentDate      *time.Time   `json:"payment_date,omitempty"`
	Quantity         *int         `json:"quantity,omitempty"`
	State            string       `json:"state,omitempty"`
	TransactionID    string       `json:"transaction_id,omitempty"`
	DispatchDate     *time.Time   `json:"dispatch_date,omitempty"`
	PriceType        string       `json:"price_type,omitempty"`
}
