// Package merge rebuilds the reconciled order ledger from the canonical
// orders and payments tables.
package merge

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"ecomledger/internal/domain"
	"ecomledger/internal/metrics"
	"ecomledger/internal/repository"
)

// Engine reconciles orders with their settlement payments. Every rebuild
// recomputes the full merged table and swaps it in atomically.
type Engine struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	merged   repository.MergedRecordRepository
	registry *metrics.Registry
}

// NewEngine wires a reconciliation engine.
func NewEngine(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	merged repository.MergedRecordRepository,
	registry *metrics.Registry,
) *Engine {
	return &Engine{orders: orders, payments: payments, merged: merged, registry: registry}
}

// Rebuild recomputes one merged row per distinct order id seen in either
// table and replaces the merged table with the result. It returns how many
// rows were written.
func (e *Engine) Rebuild(ctx context.Context) (int, error) {
	orders, err := e.orders.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load orders for merge: %w", err)
	}
	payments, err := e.payments.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load payments for merge: %w", err)
	}

	ordersByID := make(map[string]domain.Order, len(orders))
	for _, order := range orders {
		ordersByID[order.OrderID] = order
	}

	paymentsByOrder := make(map[string][]domain.Payment)
	for _, payment := range payments {
		paymentsByOrder[payment.OrderID] = append(paymentsByOrder[payment.OrderID], payment)
	}

	ids := make([]string, 0, len(ordersByID))
	for id := range ordersByID {
		ids = append(ids, id)
	}
	for id := range paymentsByOrder {
		if _, ok := ordersByID[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	records := make([]domain.MergedRecord, 0, len(ids))
	for _, id := range ids {
		var order *domain.Order
		if o, ok := ordersByID[id]; ok {
			order = &o
		}
		records = append(records, reconcile(id, order, paymentsByOrder[id]))
	}

	if err := e.merged.ReplaceAll(ctx, records); err != nil {
		return 0, fmt.Errorf("failed to replace merged records: %w", err)
	}

	if e.registry != nil {
		e.registry.MergedRebuilt.Add(float64(len(records)))
	}
	log.Printf("[MERGE] rebuilt %d merged records from %d orders and %d payments",
		len(records), len(orders), len(payments))
	return len(records), nil
}

// Statistics aggregates the current merged table.
func (e *Engine) Statistics(ctx context.Context) (repository.MergedStatistics, error) {
	return e.merged.Statistics(ctx)
}

// ListRecords returns the current merged table.
func (e *Engine) ListRecords(ctx context.Context) ([]domain.MergedRecord, error) {
	return e.merged.ListAll(ctx)
}

// reconcile builds one merged row. The settlement amount is the sum over all
// payment rows for the order; the other payment-derived fields come from the
// representative payment, the one with the latest payment date.
func reconcile(orderID string, order *domain.Order, payments []domain.Payment) domain.MergedRecord {
	record := domain.MergedRecord{OrderID: orderID}

	sorted := sortNewestFirst(payments)

	for _, payment := range sorted {
		if value := payment.SettlementValue(); value != nil {
			record.SettlementAmount += *value
		}
	}

	// A representative needs a payment date; when no row is dated the
	// payment-derived fields stay empty.
	var representative *domain.Payment
	if len(sorted) > 0 && sorted[0].PaymentDateTime != nil {
		representative = &sorted[0]
	}

	record.OrderStatus, record.StatusSource = resolveStatus(order, sorted)

	if order != nil {
		record.SKUID = order.SKU
		record.OrderDate = order.OrderDateTime
		record.State = order.CustomerState
		quantity := order.Quantity
		record.Quantity = &quantity
		if order.SellingPrice != nil {
			amount := *order.SellingPrice * float64(order.Quantity)
			record.OrderAmount = &amount
		}
	}

	if representative != nil {
		record.PaymentDate = representative.PaymentDateTime
		record.DispatchDate = representative.DispatchDate
		record.PriceType = representative.PriceType
		if record.SKUID == "" {
			record.SKUID = representative.SupplierSKU
		}
		// The payment file's order date wins over the order file's.
		if representative.OrderDateTime != nil {
			record.OrderDate = representative.OrderDateTime
		}
		if record.Quantity == nil {
			record.Quantity = representative.Quantity
		}
		record.TransactionID = representative.TransactionID
	}
	if record.TransactionID == "" {
		for _, payment := range sorted {
			if payment.TransactionID != "" {
				record.TransactionID = payment.TransactionID
				break
			}
		}
	}

	return record
}

// resolveStatus prefers the newest meaningful payment status over the order
// file's credit entry reason. Orders seen in neither form report UNKNOWN.
func resolveStatus(order *domain.Order, newestFirst []domain.Payment) (string, domain.StatusSource) {
	for _, payment := range newestFirst {
		status := strings.TrimSpace(payment.OrderStatus)
		if status != "" && !strings.EqualFold(status, "unknown") {
			return status, domain.StatusSourcePaymentFile
		}
	}

	if order != nil && strings.TrimSpace(order.ReasonForCreditEntry) != "" {
		return strings.TrimSpace(order.ReasonForCreditEntry), domain.StatusSourceOrderFile
	}

	return "UNKNOWN", domain.StatusSourceMerged
}

// sortNewestFirst orders payments by payment date descending with undated
// rows last, leaving the input untouched.
func sortNewestFirst(payments []domain.Payment) []domain.Payment {
	sorted := make([]domain.Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].PaymentDateTime, sorted[j].PaymentDateTime
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
	return sorted
}
