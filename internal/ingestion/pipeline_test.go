package ingestion

import (
	"context"
	"strings"
	"testing"

	"ecomledger/internal/domain"
	"ecomledger/internal/merge"
	"ecomledger/internal/metrics"
	"ecomledger/internal/normalization"
	"ecomledger/internal/repository"
)

const paymentHeader = "Sub Order No,Order Date,Dispatch Date,Product Name,Supplier SKU,Live Order Status,Product GST %,Listing Price (Incl. taxes),Quantity,Transaction ID,Payment Date,Final Settlement Amount,Price Type"

type memNormalizedOrders struct {
	upserts map[string]domain.NormalizedOrder
}

func (s *memNormalizedOrders) Upsert(_ context.Context, record domain.NormalizedOrder) error {
	if s.upserts == nil {
		s.upserts = map[string]domain.NormalizedOrder{}
	}
	s.upserts[record.OrderID] = record
	return nil
}

func (s *memNormalizedOrders) DeleteByBatch(_ context.Context, _ string) (int64, error) {
	return 0, nil
}
func (s *memNormalizedOrders) DeleteAll(_ context.Context) (int64, error) { return 0, nil }
func (s *memNormalizedOrders) CountByBatch(_ context.Context, _ string) (int64, error) {
	return int64(len(s.upserts)), nil
}
func (s *memNormalizedOrders) CountResolvedByBatch(_ context.Context, _ string, _ bool) (int64, error) {
	return 0, nil
}
func (s *memNormalizedOrders) StatusCountsByBatch(_ context.Context, _ string) (map[string]int64, error) {
	return nil, nil
}
func (s *memNormalizedOrders) FindSKUBySupplierSKU(_ context.Context, _ string) (string, error) {
	return "", nil
}

type memNormalizedPayments struct {
	upserts map[string]domain.NormalizedPayment
}

func (s *memNormalizedPayments) Upsert(_ context.Context, record domain.NormalizedPayment) error {
	if s.upserts == nil {
		s.upserts = map[string]domain.NormalizedPayment{}
	}
	s.upserts[record.OrderID] = record
	return nil
}

func (s *memNormalizedPayments) DeleteByBatch(_ context.Context, _ string) (int64, error) {
	return 0, nil
}
func (s *memNormalizedPayments) DeleteAll(_ context.Context) (int64, error) { return 0, nil }
func (s *memNormalizedPayments) CountByBatch(_ context.Context, _ string) (int64, error) {
	return int64(len(s.upserts)), nil
}
func (s *memNormalizedPayments) StatusCountsByBatch(_ context.Context, _ string) (map[string]int64, error) {
	return nil, nil
}

type memMergedRepo struct {
	records []domain.MergedRecord
}

func (s *memMergedRepo) ReplaceAll(_ context.Context, records []domain.MergedRecord) error {
	s.records = records
	return nil
}

func (s *memMergedRepo) ListAll(_ context.Context) ([]domain.MergedRecord, error) {
	return s.records, nil
}

func (s *memMergedRepo) Statistics(_ context.Context) (repository.MergedStatistics, error) {
	return repository.MergedStatistics{TotalRecords: int64(len(s.records))}, nil
}

func paymentsCSV(rows ...string) string {
	return paymentHeader + "\n" + strings.Join(rows, "\n") + "\n"
}

func paymentCSVRow(orderID, transactionID, amount string) string {
	return strings.Join([]string{
		orderID, "2024-03-10", "2024-03-11", "Cotton Kurta", "SUP-" + orderID,
		"Delivered", "5", "450.00", "1", transactionID, "2024-03-20", amount, "settled",
	}, ",")
}

// Exercises the whole pipeline over in-memory stores: upload both files,
// normalize both batches, reconcile, and check one merged row per order with
// the payment file supplying the status.
func TestPipelineReconcilesUploadedBatches(t *testing.T) {
	ctx := context.Background()

	raw := &stubRawRepo{}
	orders := &stubOrderRepo{}
	payments := &stubPaymentRepo{}
	merged := &memMergedRepo{}
	registry := metrics.NewRegistry()

	engine := merge.NewEngine(orders, payments, merged, registry)
	importer := NewImporter(orders, payments)
	service := NewService(raw, &stubLogRepo{}, importer, &stubPublisher{}, registry, engine)

	orderResult, err := service.Ingest(ctx, Request{
		RecordType: domain.RecordTypeOrders,
		FileName:   "orders.csv",
		Data: strings.NewReader(ordersCSV(
			"Delivered,SO-9101,2024-03-01,Karnataka,Cotton Kurta,SKU-1,XL,2,499.00,399.00,PKT-1",
			"Shipped,SO-9102,2024-03-02,Kerala,Cotton Kurta,SKU-2,L,1,499.00,399.00,PKT-1",
			"Delivered,SO-9103,2024-03-03,Goa,Silk Saree,SKU-3,M,1,999.00,899.00,PKT-2",
			"RTO Complete,SO-9104,2024-03-04,Punjab,Silk Saree,SKU-4,S,3,999.00,899.00,PKT-2",
		)),
	})
	if err != nil {
		t.Fatalf("order ingest failed: %v", err)
	}
	if orderResult.AcceptedRows != 4 {
		t.Fatalf("expected 4 staged order rows, got %+v", orderResult)
	}

	paymentResult, err := service.Ingest(ctx, Request{
		RecordType: domain.RecordTypePayments,
		FileName:   "payments.csv",
		Data: strings.NewReader(paymentsCSV(
			paymentCSVRow("SO-9101", "TXN-1", "380.00"),
			paymentCSVRow("SO-9102", "TXN-2", "390.00"),
			paymentCSVRow("SO-9103", "TXN-3", "850.00"),
			paymentCSVRow("SO-9104", "TXN-4", "-120.00"),
		)),
	})
	if err != nil {
		t.Fatalf("payment ingest failed: %v", err)
	}
	if paymentResult.AcceptedRows != 4 {
		t.Fatalf("expected 4 staged payment rows, got %+v", paymentResult)
	}

	normalizedOrders := &memNormalizedOrders{}
	normalizedPayments := &memNormalizedPayments{}
	processor := normalization.NewProcessor(raw, normalizedOrders, normalizedPayments, registry, 2, 100)

	orderSummary, err := processor.Run(ctx, domain.RecordTypeOrders, orderResult.BatchID)
	if err != nil {
		t.Fatalf("order normalization failed: %v", err)
	}
	if orderSummary.Processed != 4 || orderSummary.Skipped != 0 || orderSummary.Failed != 0 {
		t.Fatalf("expected all 4 order rows normalized, got %+v", orderSummary)
	}

	paymentSummary, err := processor.Run(ctx, domain.RecordTypePayments, paymentResult.BatchID)
	if err != nil {
		t.Fatalf("payment normalization failed: %v", err)
	}
	if paymentSummary.Processed != 4 {
		t.Fatalf("expected all 4 payment rows normalized, got %+v", paymentSummary)
	}

	count, err := engine.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if count != 4 || len(merged.records) != 4 {
		t.Fatalf("expected 4 merged records, got count=%d len=%d", count, len(merged.records))
	}
	for _, record := range merged.records {
		if record.StatusSource != domain.StatusSourcePaymentFile {
			t.Errorf("order %s: expected payment file status source, got %q",
				record.OrderID, record.StatusSource)
		}
	}
}
