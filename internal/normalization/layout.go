package normalization

import "strings"

// fieldLayout maps named fields to positional indices within a staged row.
// Staged rows are the comma joined cell values written at upload time, so the
// positions mirror the column order of the export files.
type fieldLayout struct {
	minFields int
	index     map[string]int
}

var orderLayout = fieldLayout{
	minFields: 11,
	index: map[string]int{
		"original_status":           0,
		"order_id":                  1,
		"order_date":                2,
		"customer_state":            3,
		"product_name":              4,
		"sku":                       5,
		"size":                      6,
		"quantity":                  7,
		"supplier_listed_price":     8,
		"supplier_discounted_price": 9,
		"packet_id":                 10,
	},
}

// Payment exports carry many bookkeeping columns between the ones we need,
// hence the sparse indices. price_type sits past minFields and is optional.
var paymentLayout = fieldLayout{
	minFields: 12,
	index: map[string]int{
		"order_id":        0,
		"original_status": 5,
		"transaction_id":  9,
		"payment_date":    10,
		"amount":          11,
		"price_type":      12,
	},
}

// field returns the trimmed value at the named position, or "" when the row
// is too short to carry it.
func (l fieldLayout) field(fields []string, name string) string {
	i, ok := l.index[name]
	if !ok || i < 0 || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func splitRow(raw string) []string {
	fields := strings.Split(raw, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}
