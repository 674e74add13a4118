package domain

import "time"

// Order is one canonical order row, keyed uniquely by the marketplace
// sub-order number. Imported at upload time so reconciliation can run without
// waiting for normalization.
type Order struct {
	ID                      int64      `json:"id"`
	OrderID                 string     `json:"order_id"`
	SKU                     string     `json:"sku"`
	Quantity                int        `json:"quantity"`
	SellingPrice            *float64   `json:"selling_price,omitempty"`
	OrderDateTime           *time.Time `json:"order_date_time,omitempty"`
	ProductName             string     `json:"product_name,omitempty"`
	CustomerState           string     `json:"customer_state,omitempty"`
	Size                    string     `json:"size,omitempty"`
	SupplierListedPrice     *float64   `json:"supplier_listed_price,omitempty"`
	SupplierDiscountedPrice *float64   `json:"supplier_discounted_price,omitempty"`
	PacketID                string     `json:"packet_id,omitempty"`
	ReasonForCreditEntry    string     `json:"reason_for_credit_entry,omitempty"`
}
