// Package normalization turns staged raw rows into typed normalized records,
// in chunks, tolerating bad rows up to a configurable skip limit.
package normalization

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ecomledger/internal/domain"
	"ecomledger/internal/metrics"
	"ecomledger/internal/repository"
	"ecomledger/internal/sku"
	"ecomledger/internal/status"

	"github.com/google/uuid"
)

// ErrSkipLimitExceeded aborts a run when too many rows were rejected,
// which usually means the wrong file was uploaded for the record type.
var ErrSkipLimitExceeded = errors.New("skip limit exceeded")

const (
	defaultChunkSize = 100
	defaultSkipLimit = 100
)

var (
	currencySymbols = regexp.MustCompile(`[₹$,]`)
	currencyCodes   = regexp.MustCompile(`(?i)\b(INR|USD|EUR)\b`)
)

var dateLayouts = []string{"2006-01-02", "02/01/2006", "01/02/2006"}

// Summary reports the outcome of one normalization run.
type Summary struct {
	BatchID   string `json:"batchId,omitempty"`
	TotalRows int    `json:"totalRows"`
	Processed int    `json:"processedRows"`
	Skipped   int    `json:"skippedRows"`
	Failed    int    `json:"failedRows"`
}

// Stats reports normalization progress for a batch. The SKU resolution
// counts are only populated for orders.
type Stats struct {
	BatchID         string           `json:"batchId,omitempty"`
	RawTotal        int64            `json:"rawTotal"`
	RawValid        int64            `json:"rawValid"`
	RawProcessed    int64            `json:"rawProcessed"`
	NormalizedRows  int64            `json:"normalizedRows"`
	StatusCounts    map[string]int64 `json:"statusCounts"`
	SKUResolved     *int64           `json:"skuResolvedCount,omitempty"`
	SKUUnresolved   *int64           `json:"skuUnresolvedCount,omitempty"`
	ProgressPercent float64          `json:"progressPercent"`
}

// Processor runs the chunked raw-to-normalized pipeline.
type Processor struct {
	rawRepo   repository.RawRecordRepository
	orders    repository.NormalizedOrderRepository
	payments  repository.NormalizedPaymentRepository
	registry  *metrics.Registry
	chunkSize int
	skipLimit int
}

// NewProcessor wires a processor. Non-positive chunk size and skip limit
// fall back to the defaults.
func NewProcessor(
	rawRepo repository.RawRecordRepository,
	orders repository.NormalizedOrderRepository,
	payments repository.NormalizedPaymentRepository,
	registry *metrics.Registry,
	chunkSize int,
	skipLimit int,
) *Processor {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if skipLimit <= 0 {
		skipLimit = defaultSkipLimit
	}
	return &Processor{
		rawRepo:   rawRepo,
		orders:    orders,
		payments:  payments,
		registry:  registry,
		chunkSize: chunkSize,
		skipLimit: skipLimit,
	}
}

// Run normalizes all unprocessed staged rows of the given type. An empty
// batch id processes every batch. Only rows still marked unprocessed are
// read, so re-running a fully processed batch is a no-op; Clear resets a
// batch for reprocessing. Each row is persisted independently: a bad row is
// marked invalid and counted, never aborting the rows around it, until the
// skip limit trips.
func (p *Processor) Run(ctx context.Context, rt domain.RecordType, batchID string) (Summary, error) {
	summary := Summary{BatchID: batchID}

	// The cache is scoped to the run: cross-reference data may change
	// between runs.
	cache := sku.NewCache()
	resolver := sku.NewResolver(p.orders, cache)

	for {
		chunk, err := p.rawRepo.ListUnprocessed(ctx, rt, batchID, p.chunkSize)
		if err != nil {
			return summary, fmt.Errorf("failed to load raw chunk: %w", err)
		}
		if len(chunk) == 0 {
			break
		}

		var done []uuid.UUID
		for _, raw := range chunk {
			summary.TotalRows++
			if p.registry != nil {
				p.registry.RowsRead.Inc()
			}

			skipReason, rowErr := p.normalizeRow(ctx, rt, raw, resolver)
			switch {
			case rowErr != nil:
				summary.Failed++
				if p.registry != nil {
					p.registry.RowsSkipped.Inc()
				}
				log.Printf("[NORMALIZE] row %d in batch %s failed: %v", raw.RowNumber, raw.BatchID, rowErr)
				if markErr := p.rawRepo.MarkInvalid(ctx, rt, raw.ID, rowErr.Error()); markErr != nil {
					return summary, markErr
				}
			case skipReason != "":
				summary.Skipped++
				if p.registry != nil {
					p.registry.RowsSkipped.Inc()
				}
				if markErr := p.rawRepo.MarkInvalid(ctx, rt, raw.ID, skipReason); markErr != nil {
					return summary, markErr
				}
			default:
				summary.Processed++
				if p.registry != nil {
					p.registry.RowsWritten.Inc()
				}
				done = append(done, raw.ID)
			}

			if summary.Skipped+summary.Failed > p.skipLimit {
				if markErr := p.rawRepo.MarkProcessed(ctx, rt, done); markErr != nil {
					return summary, markErr
				}
				return summary, fmt.Errorf("%w: %d rows rejected", ErrSkipLimitExceeded, summary.Skipped+summary.Failed)
			}
		}

		if err := p.rawRepo.MarkProcessed(ctx, rt, done); err != nil {
			return summary, err
		}
	}

	log.Printf("[NORMALIZE] %s batch %q: %d processed, %d skipped, %d failed",
		strings.ToLower(string(rt)), batchID, summary.Processed, summary.Skipped, summary.Failed)
	if size, hits, misses := cache.Stats(); size > 0 {
		log.Printf("[NORMALIZE] sku cache: %d entries, %d resolved, %d misses", size, hits, misses)
	}
	return summary, nil
}

// Clear deletes the normalized output for a batch and resets the staged rows
// so they can be normalized again. An empty batch id clears everything.
func (p *Processor) Clear(ctx context.Context, rt domain.RecordType, batchID string) (int64, error) {
	var (
		deleted int64
		err     error
	)
	switch {
	case rt == domain.RecordTypePayments && batchID == "":
		deleted, err = p.payments.DeleteAll(ctx)
	case rt == domain.RecordTypePayments:
		deleted, err = p.payments.DeleteByBatch(ctx, batchID)
	case batchID == "":
		deleted, err = p.orders.DeleteAll(ctx)
	default:
		deleted, err = p.orders.DeleteByBatch(ctx, batchID)
	}
	if err != nil {
		return 0, err
	}

	if err := p.rawRepo.ResetBatch(ctx, rt, batchID); err != nil {
		return deleted, err
	}

	if deleted > 0 {
		log.Printf("[NORMALIZE] cleared %d normalized %s rows (batch %q)", deleted, strings.ToLower(string(rt)), batchID)
	}
	return deleted, nil
}

// Stats reports progress for a batch, or across all batches when the batch
// id is empty.
func (p *Processor) Stats(ctx context.Context, rt domain.RecordType, batchID string) (Stats, error) {
	stats := Stats{BatchID: batchID}

	raw, err := p.rawRepo.BatchStats(ctx, rt, batchID)
	if err != nil {
		return stats, err
	}
	stats.RawTotal = raw.Total
	stats.RawValid = raw.Valid
	stats.RawProcessed = raw.Processed
	if raw.Total > 0 {
		stats.ProgressPercent = float64(raw.Processed) / float64(raw.Total) * 100
	}

	if rt == domain.RecordTypePayments {
		if stats.NormalizedRows, err = p.payments.CountByBatch(ctx, batchID); err != nil {
			return stats, err
		}
		if stats.StatusCounts, err = p.payments.StatusCountsByBatch(ctx, batchID); err != nil {
			return stats, err
		}
		return stats, nil
	}

	if stats.NormalizedRows, err = p.orders.CountByBatch(ctx, batchID); err != nil {
		return stats, err
	}
	if stats.StatusCounts, err = p.orders.StatusCountsByBatch(ctx, batchID); err != nil {
		return stats, err
	}

	resolved, err := p.orders.CountResolvedByBatch(ctx, batchID, true)
	if err != nil {
		return stats, err
	}
	unresolved, err := p.orders.CountResolvedByBatch(ctx, batchID, false)
	if err != nil {
		return stats, err
	}
	stats.SKUResolved = &resolved
	stats.SKUUnresolved = &unresolved

	return stats, nil
}

func (p *Processor) normalizeRow(ctx context.Context, rt domain.RecordType, raw domain.RawRecord, resolver *sku.Resolver) (string, error) {
	if rt == domain.RecordTypePayments {
		record, skipReason := buildNormalizedPayment(raw)
		if skipReason != "" {
			return skipReason, nil
		}
		return "", p.payments.Upsert(ctx, *record)
	}

	record, skipReason := buildNormalizedOrder(ctx, raw, resolver)
	if skipReason != "" {
		return skipReason, nil
	}
	return "", p.orders.Upsert(ctx, *record)
}

func buildNormalizedOrder(ctx context.Context, raw domain.RawRecord, resolver *sku.Resolver) (*domain.NormalizedOrder, string) {
	fields := splitRow(raw.RawData)
	if len(fields) < orderLayout.minFields {
		return nil, fmt.Sprintf("insufficient fields: have %d, need %d", len(fields), orderLayout.minFields)
	}

	orderID := orderLayout.field(fields, "order_id")
	if orderID == "" {
		return nil, "missing order id"
	}

	originalStatus := orderLayout.field(fields, "original_status")
	rawSKU := orderLayout.field(fields, "sku")
	resolvedSKU, skuResolved := resolver.Resolve(ctx, rawSKU, rawSKU)

	discounted := parseDecimal(orderLayout.field(fields, "supplier_discounted_price"))

	record := domain.NormalizedOrder{
		OrderID:                 orderID,
		SKU:                     resolvedSKU,
		Quantity:                parseInteger(orderLayout.field(fields, "quantity")),
		SellingPrice:            discounted,
		OrderDate:               parseDate(orderLayout.field(fields, "order_date")),
		ProductName:             orderLayout.field(fields, "product_name"),
		CustomerState:           orderLayout.field(fields, "customer_state"),
		Size:                    orderLayout.field(fields, "size"),
		SupplierListedPrice:     parseDecimal(orderLayout.field(fields, "supplier_listed_price")),
		SupplierDiscountedPrice: discounted,
		PacketID:                orderLayout.field(fields, "packet_id"),
		StandardizedStatus:      status.Normalize(originalStatus),
		OriginalStatus:          originalStatus,
		SupplierSKU:             rawSKU,
		SKUResolved:             skuResolved,
		BatchID:                 raw.BatchID,
		RawRowID:                raw.ID,
	}

	return &record, ""
}

func buildNormalizedPayment(raw domain.RawRecord) (*domain.NormalizedPayment, string) {
	fields := splitRow(raw.RawData)
	if len(fields) < paymentLayout.minFields {
		return nil, fmt.Sprintf("insufficient fields: have %d, need %d", len(fields), paymentLayout.minFields)
	}

	orderID := paymentLayout.field(fields, "order_id")
	if orderID == "" {
		return nil, "missing order id"
	}

	// Unlike upload-time import, normalization refuses to guess at money:
	// a row whose settlement amount does not parse is rejected.
	amount := parseDecimal(paymentLayout.field(fields, "amount"))
	if amount == nil {
		return nil, "unparseable settlement amount"
	}

	transactionID := paymentLayout.field(fields, "transaction_id")
	paymentID := transactionID
	if paymentID == "" {
		paymentID = orderID
	}

	originalStatus := paymentLayout.field(fields, "original_status")

	record := domain.NormalizedPayment{
		PaymentID:          paymentID,
		OrderID:            orderID,
		Amount:             amount,
		PaymentDate:        parseDate(paymentLayout.field(fields, "payment_date")),
		StandardizedStatus: status.Normalize(originalStatus),
		OriginalStatus:     originalStatus,
		TransactionID:      transactionID,
		PriceType:          paymentLayout.field(fields, "price_type"),
		BatchID:            raw.BatchID,
		RawRowID:           raw.ID,
	}

	return &record, ""
}

func parseDecimal(value string) *float64 {
	value = currencyCodes.ReplaceAllString(value, "")
	value = currencySymbols.ReplaceAllString(value, "")
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseInteger(value string) *int {
	decimal := parseDecimal(value)
	if decimal == nil {
		return nil
	}
	parsed := int(*decimal)
	return &parsed
}

func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	return nil
}
