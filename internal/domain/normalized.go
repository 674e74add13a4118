package domain

import (
	"time"

	"github.com/google/uuid"
)

// NormalizedOrder is the canonical, typed projection of a raw order row,
// upserted by OrderID. At most one normalized order exists per OrderID;
// re-normalizing (for example after a re-upload) overwrites all mutable fields.
type NormalizedOrder struct {
	ID                      int64      `json:"id"`
	OrderID                 string     `json:"order_id"`
	SKU                     string     `json:"sku"`
	Quantity                *int       `json:"quantity,omitempty"`
	SellingPrice            *float64   `json:"selling_price,omitempty"`
	OrderDate               *time.Time `json:"order_date,omitempty"`
	ProductName             string     `json:"product_name,omitempty"`
	CustomerState           string     `json:"customer_state,omitempty"`
	Size                    string     `json:"size,omitempty"`
	SupplierListedPrice     *float64   `json:"supplier_listed_price,omitempty"`
	SupplierDiscountedPrice *float64   `json:"supplier_discounted_price,omitempty"`
	PacketID                string     `json:"packet_id,omitempty"`
	StandardizedStatus      string     `json:"standardized_status"`
	OriginalStatus          string     `json:"original_status"`
	SupplierSKU             string     `json:"supplier_sku,omitempty"`
	SKUResolved             bool       `json:"sku_resolved"`
	ValidationErrors        *string    `json:"validation_errors,omitempty"`
	BatchID                 string     `json:"batch_id"`
	RawRowID                uuid.UUID  `json:"raw_row_id"`
}

// NormalizedPayment is the canonical projection of a raw payment row,
// upserted by OrderID.
type NormalizedPayment struct {
	ID                 int64      `json:"id"`
	PaymentID          string     `json:"payment_id"`
	OrderID            string     `json:"order_id"`
	Amount             *float64   `json:"amount,omitempty"`
	PaymentDate        *time.Time `json:"payment_date,omitempty"`
	StandardizedStatus string     `json:"standardized_status"`
	OriginalStatus     string     `json:"original_status"`
	TransactionID      string     `json:"transaction_id,omitempty"`
	PriceType          string     `json:"price_type,omitempty"`
	ValidationErrors   *string    `json:"validation_errors,omitempty"`
	BatchID            string     `json:"batch_id"`
	RawRowID           uuid.UUID  `json:"raw_row_id"`
}
