package ingestion

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ecomledger/internal/domain"
	"ecomledger/internal/repository"
)

var (
	currencySymbols = regexp.MustCompile(`[₹$,]`)
	currencyCodes   = regexp.MustCompile(`(?i)\b(INR|USD|EUR)\b`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// Importer maps staged upload tables onto canonical order and payment rows.
// Missing critical cells never reject a row; they fall back to defaults and
// produce a warning, so one sloppy export line cannot sink a batch.
type Importer struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
}

// NewImporter creates a canonical entity importer.
func NewImporter(orders repository.OrderRepository, payments repository.PaymentRepository) *Importer {
	return &Importer{orders: orders, payments: payments}
}

// Import converts the parsed table into canonical rows and upserts them.
func (im *Importer) Import(ctx context.Context, rt domain.RecordType, table tableData) (int, []string, error) {
	if rt == domain.RecordTypePayments {
		payments, warnings := im.buildPayments(table)
		written, err := im.payments.UpsertBatch(ctx, payments)
		if err != nil {
			return 0, warnings, err
		}
		return written, warnings, nil
	}

	orders, warnings := im.buildOrders(table)
	written, err := im.orders.UpsertBatch(ctx, orders)
	if err != nil {
		return 0, warnings, err
	}
	return written, warnings, nil
}

func (im *Importer) buildOrders(table tableData) ([]domain.Order, []string) {
	hmap := headerIndex(table.headers)
	warnings := []string{}
	orders := make([]domain.Order, 0, len(table.rows))

	for i, row := range table.rows {
		rowNumber := i + 1

		orderID := cellAny(row, hmap, "Sub Order No", "Order Id", "Order ID", "Sub Order")
		if orderID == "" {
			orderID = fmt.Sprintf("UNKNOWN-%d-%d", time.Now().UnixMilli(), rowNumber)
			warnings = append(warnings, fmt.Sprintf("row %d: missing order id; generated %s", rowNumber, orderID))
		}
		orderID = clamp(orderID, "order_id", &warnings)

		sku := cellAny(row, hmap, "SKU", "Supplier SKU", "Product SKU")
		if sku == "" {
			sku = "UNKNOWN"
			warnings = append(warnings, fmt.Sprintf("row %d (%s): missing SKU; set to UNKNOWN", rowNumber, orderID))
		}

		quantity := parseIntFlexible(cellAny(row, hmap, "Quantity", "Qty"))
		if quantity <= 0 {
			warnings = append(warnings, fmt.Sprintf("row %d (%s): quantity invalid; set to 0", rowNumber, orderID))
			quantity = 0
		}

		price := parseFloatFlexible(cellAny(row, hmap,
			"Supplier Discounted Price (Incl GST and Commision)",
			"Supplier Discounted Price (Incl GST and Commission)",
			"Supplier Listed Price (Incl. GST + Commission)",
			"Listing Price", "Unit Price", "Price"))
		if price == nil || *price <= 0 {
			warnings = append(warnings, fmt.Sprintf("row %d (%s): selling price missing or invalid; set to 0", rowNumber, orderID))
			zero := 0.0
			price = &zero
		}

		orderDate := parseDateFlexible(cellAny(row, hmap, "Order Date", "Date", "OrderDate"))
		if orderDate == nil {
			warnings = append(warnings, fmt.Sprintf("row %d (%s): order date missing or invalid; set to today", rowNumber, orderID))
			today := startOfToday()
			orderDate = &today
		}

		orders = append(orders, domain.Order{
			OrderID:                 orderID,
			SKU:                     sku,
			Quantity:                quantity,
			SellingPrice:            price,
			OrderDateTime:           orderDate,
			ProductName:             cellAny(row, hmap, "Product Name", "Product"),
			CustomerState:           cellAny(row, hmap, "Customer State", "State"),
			Size:                    cellAny(row, hmap, "Size"),
			SupplierListedPrice:     parseFloatFlexible(cellAny(row, hmap, "Supplier Listed Price (Incl. GST + Commission)")),
			SupplierDiscountedPrice: parseFloatFlexible(cellAny(row, hmap, "Supplier Discounted Price (Incl GST and Commision)", "Supplier Discounted Price (Incl GST and Commission)")),
			PacketID:                cellAny(row, hmap, "Packet Id", "Packet ID"),
			ReasonForCreditEntry:    cellAny(row, hmap, "Reason for Credit Entry", "Credit Entry Reason"),
		})
	}

	return orders, warnings
}

func (im *Importer) buildPayments(table tableData) ([]domain.Payment, []string) {
	hmap := headerIndex(table.headers)
	warnings := []string{}
	payments := make([]domain.Payment, 0, len(table.rows))

	for i, row := range table.rows {
		rowNumber := i + 1

		orderID := cellAny(row, hmap, "Sub Order No", "Order Id", "Order ID", "Sub Order")
		if orderID == "" {
			orderID = fmt.Sprintf("UNKNOWN-%d-%d", time.Now().UnixMilli(), rowNumber)
			warnings = append(warnings, fmt.Sprintf("row %d: missing order id; generated %s", rowNumber, orderID))
		}
		orderID = clamp(orderID, "order_id", &warnings)

		paymentID := clamp(cellAny(row, hmap, "Transaction ID", "Payment Id", "Payment ID", "Transaction"), "payment_id", &warnings)
		if paymentID == "" {
			paymentID = orderID + "-PAY"
		}

		amountRaw := cellAny(row, hmap, "Final Settlement Amount", "Net Settlement Amount", "Amount")
		dateRaw := cellAny(row, hmap, "Payment Date", "Settlement Date", "Date")
		if amountRaw == "" && dateRaw == "" {
			// likely an empty filler row
			continue
		}

		amount := parseFloatFlexible(amountRaw)
		if amount == nil {
			warnings = append(warnings, fmt.Sprintf("row %d (%s): amount missing or invalid; set to 0", rowNumber, orderID))
			zero := 0.0
			amount = &zero
		}

		paymentDate := parseDateFlexible(dateRaw)
		if paymentDate == nil {
			warnings = append(warnings, fmt.Sprintf("row %d (%s): payment date missing or invalid; set to today", rowNumber, orderID))
			today := startOfToday()
			paymentDate = &today
		}

		orderStatus := clamp(cellAny(row, hmap, "Live Order Status", "Order Status", "Status"), "order_status", &warnings)
		if orderStatus == "" {
			orderStatus = "UNKNOWN"
			warnings = append(warnings, fmt.Sprintf("row %d (%s): missing order status; set to UNKNOWN", rowNumber, orderID))
		}

		var quantity *int
		if qty := parseIntFlexible(cellAny(row, hmap, "Quantity", "Qty")); qty > 0 {
			quantity = &qty
		}

		payments = append(payments, domain.Payment{
			PaymentID:             paymentID,
			OrderID:               orderID,
			SupplierSKU:           cellAny(row, hmap, "Supplier SKU"),
			Amount:                amount,
			PaymentDateTime:       paymentDate,
			OrderDateTime:         parseDateFlexible(cellAny(row, hmap, "Order Date")),
			OrderStatus:           orderStatus,
			Quantity:              quantity,
			ProductName:           cellAny(row, hmap, "Product Name", "Product"),
			TransactionID:         clamp(cellAny(row, hmap, "Transaction ID", "Transaction Id"), "transaction_id", &warnings),
			FinalSettlementAmount: parseFloatFlexible(cellAny(row, hmap, "Final Settlement Amount", "Net Settlement Amount")),
			PriceType:             clamp(cellAny(row, hmap, "Price Type"), "price_type", &warnings),
			DispatchDate:          parseDateFlexible(cellAny(row, hmap, "Dispatch Date")),
			ProductGSTPercent:     parseFloatFlexible(cellAny(row, hmap, "Product GST %")),
			ListingPriceInclTaxes: parseFloatFlexible(cellAny(row, hmap, "Listing Price (Incl. taxes)")),
		})
	}

	return payments, warnings
}

// clamp truncates overly long strings to fit VARCHAR style limits.
func clamp(value, field string, warnings *[]string) string {
	v := strings.TrimSpace(value)
	if len(v) > 255 {
		*warnings = append(*warnings, fmt.Sprintf("%s length %d > 255; truncated", field, len(v)))
		return v[:255]
	}
	return v
}

func normalizeHeader(h string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(h)), " ")
}

func headerIndex(headers []string) map[string]int {
	hmap := make(map[string]int, len(headers))
	for idx, header := range headers {
		name := normalizeHeader(header)
		if name == "" {
			continue
		}
		if _, exists := hmap[name]; !exists {
			hmap[name] = idx
		}
	}
	return hmap
}

// resolveHeaderIndex matches a candidate column name exactly first, then by
// substring in either direction, then by requiring every candidate word to
// appear in the header.
func resolveHeaderIndex(hmap map[string]int, candidate string) (int, bool) {
	target := normalizeHeader(candidate)
	if idx, ok := hmap[target]; ok {
		return idx, true
	}

	for key, idx := range hmap {
		if strings.Contains(key, target) || strings.Contains(target, key) {
			return idx, true
		}
	}

	words := strings.Fields(target)
	for key, idx := range hmap {
		all := true
		for _, word := range words {
			if !strings.Contains(key, word) {
				all = false
				break
			}
		}
		if all && len(words) > 0 {
			return idx, true
		}
	}

	return 0, false
}

func cellAny(row []string, hmap map[string]int, names ...string) string {
	for _, name := range names {
		idx, ok := resolveHeaderIndex(hmap, name)
		if !ok || idx >= len(row) {
			continue
		}
		if value := strings.TrimSpace(row[idx]); value != "" {
			return value
		}
	}
	return ""
}

func cleanNumeric(value string) string {
	value = currencySymbols.ReplaceAllString(value, "")
	value = currencyCodes.ReplaceAllString(value, "")
	return strings.TrimSpace(value)
}

func parseFloatFlexible(value string) *float64 {
	cleaned := cleanNumeric(value)
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseIntFlexible(value string) int {
	cleaned := cleanNumeric(value)
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

func parseDateFlexible(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return &ts
		}
	}
	return nil
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
