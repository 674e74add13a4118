package repository

import (
	"context"

	"ecomledger/internal/domain"

	"github.com/google/uuid"
)

// RawBatchStats summarizes the processing state of one staged batch.
type RawBatchStats struct {
	Total     int64 `json:"total"`
	Valid     int64 `json:"valid"`
	Processed int64 `json:"processed"`
}

// RawRecordRepository stages uploaded rows and tracks their processing state.
// The record type selects the backing table. An empty batch id matches all
// batches.
type RawRecordRepository interface {
	Insert(ctx context.Context, record domain.RawRecord) error
	ListUnprocessed(ctx context.Context, rt domain.RecordType, batchID string, limit int) ([]domain.RawRecord, error)
	MarkProcessed(ctx context.Context, rt domain.RecordType, ids []uuid.UUID) error
	MarkInvalid(ctx context.Context, rt domain.RecordType, id uuid.UUID, message string) error
	ResetBatch(ctx context.Context, rt domain.RecordType, batchID string) error
	BatchStats(ctx context.Context, rt domain.RecordType, batchID string) (RawBatchStats, error)
}

// OrderRepository persists canonical orders, unique by order id.
type OrderRepository interface {
	UpsertBatch(ctx context.Context, orders []domain.Order) (int, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	Count(ctx context.Context) (int64, error)
}

// PaymentRepository persists canonical payments, unique by payment id.
type PaymentRepository interface {
	UpsertBatch(ctx context.Context, payments []domain.Payment) (int, error)
	ListAll(ctx context.Context) ([]domain.Payment, error)
	Count(ctx context.Context) (int64, error)
}

// NormalizedOrderRepository persists normalized orders, upserted by order id.
// It also serves supplier SKU cross-reference lookups for the resolver.
type NormalizedOrderRepository interface {
	Upsert(ctx context.Context, record domain.NormalizedOrder) error
	DeleteByBatch(ctx context.Context, batchID string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	CountByBatch(ctx context.Context, batchID string) (int64, error)
	CountResolvedByBatch(ctx context.Context, batchID string, resolved bool) (int64, error)
	StatusCountsByBatch(ctx context.Context, batchID string) (map[string]int64, error)
	FindSKUBySupplierSKU(ctx context.Context, supplierSKU string) (string, error)
}

// NormalizedPaymentRepository persists normalized payments, upserted by order id.
type NormalizedPaymentRepository interface {
	Upsert(ctx context.Context, record domain.NormalizedPayment) error
	DeleteByBatch(ctx context.Context, batchID string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	CountByBatch(ctx context.Context, batchID string) (int64, error)
	StatusCountsByBatch(ctx context.Context, batchID string) (map[string]int64, error)
}

// MergedStatistics aggregates the reconciled table for reporting.
type MergedStatistics struct {
	TotalRecords        int64            `json:"totalRecords"`
	TotalOrderAmount    float64          `json:"totalOrderAmount"`
	TotalSettlement     float64          `json:"totalSettlementAmount"`
	CountByStatus       map[string]int64 `json:"countByStatus"`
	CountByStatusSource map[string]int64 `json:"countByStatusSource"`
}

// MergedRecordRepository owns the reconciled table. ReplaceAll swaps the whole
// table in one transaction so readers never observe a partial rebuild.
type MergedRecordRepository interface {
	ReplaceAll(ctx context.Context, records []domain.MergedRecord) error
	ListAll(ctx context.Context) ([]domain.MergedRecord, error)
	Statistics(ctx context.Context) (MergedStatistics, error)
}

// IngestionLogRepository stores ingestion errors for observability.
type IngestionLogRepository interface {
	Record(ctx context.Context, entry domain.IngestionLogEntry) error
	List(ctx context.Context, batchID string, limit int, offset int) ([]domain.IngestionLogEntry, error)
}
