package ingestion

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"ecomledger/internal/domain"
	"ecomledger/internal/metrics"
	"ecomledger/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const orderHeader = "Reason for Credit Entry,Sub Order No,Order Date,Customer State,Product Name,SKU,Size,Quantity,Supplier Listed Price (Incl. GST + Commission),Supplier Discounted Price (Incl GST and Commision),Packet Id"

type stubRawRepo struct {
	inserted  []domain.RawRecord
	insertErr error
	processed map[uuid.UUID]bool
	invalid   map[uuid.UUID]string
}

func (s *stubRawRepo) Insert(_ context.Context, record domain.RawRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, record)
	return nil
}

func (s *stubRawRepo) ListUnprocessed(_ context.Context, rt domain.RecordType, batchID string, limit int) ([]domain.RawRecord, error) {
	var out []domain.RawRecord
	for _, record := range s.inserted {
		if record.RecordType != rt || s.processed[record.ID] {
			continue
		}
		if _, bad := s.invalid[record.ID]; bad {
			continue
		}
		if batchID != "" && record.BatchID != batchID {
			continue
		}
		out = append(out, record)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubRawRepo) MarkProcessed(_ context.Context, _ domain.RecordType, ids []uuid.UUID) error {
	if s.processed == nil {
		s.processed = map[uuid.UUID]bool{}
	}
	for _, id := range ids {
		s.processed[id] = true
	}
	return nil
}

func (s *stubRawRepo) MarkInvalid(_ context.Context, _ domain.RecordType, id uuid.UUID, message string) error {
	if s.invalid == nil {
		s.invalid = map[uuid.UUID]string{}
	}
	s.invalid[id] = message
	return nil
}

func (s *stubRawRepo) ResetBatch(_ context.Context, _ domain.RecordType, _ string) error {
	s.processed = map[uuid.UUID]bool{}
	s.invalid = map[uuid.UUID]string{}
	return nil
}

func (s *stubRawRepo) BatchStats(_ context.Context, _ domain.RecordType, _ string) (repository.RawBatchStats, error) {
	return repository.RawBatchStats{}, nil
}

type stubLogRepo struct {
	entries []domain.IngestionLogEntry
}

func (s *stubLogRepo) Record(_ context.Context, entry domain.IngestionLogEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubLogRepo) List(_ context.Context, _ string, _ int, _ int) ([]domain.IngestionLogEntry, error) {
	return s.entries, nil
}

type stubOrderRepo struct {
	orders []domain.Order
}

func (s *stubOrderRepo) UpsertBatch(_ context.Context, orders []domain.Order) (int, error) {
	s.orders = append(s.orders, orders...)
	return len(orders), nil
}

func (s *stubOrderRepo) ListAll(_ context.Context) ([]domain.Order, error) { return s.orders, nil }
func (s *stubOrderRepo) Count(_ context.Context) (int64, error)            { return int64(len(s.orders)), nil }

type stubPaymentRepo struct {
	payments []domain.Payment
}

func (s *stubPaymentRepo) UpsertBatch(_ context.Context, payments []domain.Payment) (int, error) {
	s.payments = append(s.payments, payments...)
	return len(payments), nil
}

func (s *stubPaymentRepo) ListAll(_ context.Context) ([]domain.Payment, error) {
	return s.payments, nil
}
func (s *stubPaymentRepo) Count(_ context.Context) (int64, error) {
	return int64(len(s.payments)), nil
}

type stubPublisher struct {
	events []domain.BatchIngestedEvent
}

func (s *stubPublisher) PublishBatchIngested(_ context.Context, event domain.BatchIngestedEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubPublisher) Close() error { return nil }

type stubRebuilder struct {
	calls int
}

func (s *stubRebuilder) Rebuild(_ context.Context) (int, error) {
	s.calls++
	return 0, nil
}

type testHarness struct {
	service   *Service
	raw       *stubRawRepo
	logs      *stubLogRepo
	orders    *stubOrderRepo
	payments  *stubPaymentRepo
	publisher *stubPublisher
	merger    *stubRebuilder
}

func newHarness() *testHarness {
	h := &testHarness{
		raw:       &stubRawRepo{},
		logs:      &stubLogRepo{},
		orders:    &stubOrderRepo{},
		payments:  &stubPaymentRepo{},
		publisher: &stubPublisher{},
		merger:    &stubRebuilder{},
	}
	importer := NewImporter(h.orders, h.payments)
	h.service = NewService(h.raw, h.logs, importer, h.publisher, metrics.NewRegistry(), h.merger)
	return h
}

func ordersCSV(rows ...string) string {
	return orderHeader + "\n" + strings.Join(rows, "\n") + "\n"
}

func TestIngestOrdersCSV(t *testing.T) {
	h := newHarness()
	csvData := ordersCSV(
		"Delivered,SO-1001,2024-03-15,Karnataka,Cotton Kurta,KURTA-RED,XL,2,499,399,PKT-1",
		"RTO Complete,SO-1002,2024-03-16,Kerala,Cotton Kurta,KURTA-BLUE,L,1,499,399,PKT-2",
	)

	result, err := h.service.Ingest(context.Background(), Request{
		RecordType: domain.RecordTypeOrders,
		FileName:   "orders.csv",
		FileSize:   int64(len(csvData)),
		Data:       strings.NewReader(csvData),
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if result.AcceptedRows != 2 || result.RejectedRows != 0 {
		t.Fatalf("expected 2 accepted rows, got %+v", result)
	}
	if result.ImportedRecords != 2 {
		t.Errorf("expected 2 imported records, got %d", result.ImportedRecords)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if !strings.HasPrefix(result.BatchID, "ORD_") {
		t.Errorf("unexpected batch id %q", result.BatchID)
	}

	if len(h.raw.inserted) != 2 {
		t.Fatalf("expected 2 staged records, got %d", len(h.raw.inserted))
	}
	staged := h.raw.inserted[0]
	if staged.BatchID != result.BatchID || staged.RowNumber != 1 {
		t.Errorf("unexpected staged record: %+v", staged)
	}
	if !strings.Contains(staged.RawData, "SO-1001") {
		t.Errorf("staged row does not carry the source cells: %q", staged.RawData)
	}

	if len(h.orders.orders) != 2 || h.orders.orders[0].OrderID != "SO-1001" {
		t.Errorf("unexpected imported orders: %+v", h.orders.orders)
	}

	if len(h.publisher.events) != 1 {
		t.Fatalf("expected 1 batch event, got %d", len(h.publisher.events))
	}
	event := h.publisher.events[0]
	if event.BatchID != result.BatchID || event.RowCount != 2 || event.FileName != "orders.csv" {
		t.Errorf("unexpected batch event: %+v", event)
	}

	if h.merger.calls != 1 {
		t.Errorf("expected merge rebuild after import, got %d calls", h.merger.calls)
	}
}

func TestIngestRejectsMissingCriticalColumn(t *testing.T) {
	h := newHarness()
	// No SKU column.
	csvData := "Sub Order No,Order Date,Quantity\nSO-1,2024-03-15,2\n"

	result, err := h.service.Ingest(context.Background(), Request{
		RecordType: domain.RecordTypeOrders,
		FileName:   "orders.csv",
		Data:       strings.NewReader(csvData),
	})
	if err != nil {
		t.Fatalf("schema rejection must not be a transport error, got %v", err)
	}

	if result.AcceptedRows != 0 {
		t.Errorf("expected no rows staged, got %d", result.AcceptedRows)
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected schema errors")
	}
	if len(h.raw.inserted) != 0 {
		t.Errorf("rejected batch must not stage rows, staged %d", len(h.raw.inserted))
	}
	if len(h.logs.entries) == 0 {
		t.Error("expected rejection recorded in the ingestion log")
	}
	if h.merger.calls != 0 {
		t.Error("rejected batch must not trigger a merge rebuild")
	}
}

func TestIngestWarnsOnUnknownColumn(t *testing.T) {
	h := newHarness()
	csvData := orderHeader + ",Mystery Column\n" +
		"Delivered,SO-1,2024-03-15,Karnataka,Kurta,SKU-1,XL,1,499,399,PKT-1,whatever\n"

	result, err := h.service.Ingest(context.Background(), Request{
		RecordType: domain.RecordTypeOrders,
		FileName:   "orders.csv",
		Data:       strings.NewReader(csvData),
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if result.AcceptedRows != 1 {
		t.Fatalf("unknown column must not reject the file, got %+v", result)
	}
	found := false
	for _, warning := range result.Warnings {
		if strings.Contains(warning, "Mystery Column") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning about the unknown column, got %v", result.Warnings)
	}
}

func TestIngestRejectsUnsupportedExtension(t *testing.T) {
	h := newHarness()
	_, err := h.service.Ingest(context.Background(), Request{
		RecordType: domain.RecordTypeOrders,
		FileName:   "orders.txt",
		Data:       strings.NewReader("whatever"),
	})
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestIngestStripsByteOrderMark(t *testing.T) {
	h := newHarness()
	csvData := "\xEF\xBB\xBF" + ordersCSV("Delivered,SO-1,2024-03-15,Karnataka,Kurta,SKU-1,XL,1,499,399,PKT-1")

	result, err := h.service.Ingest(context.Background(), Request{
		RecordType: domain.RecordTypeOrders,
		FileName:   "orders.csv",
		Data:       strings.NewReader(csvData),
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.AcceptedRows != 1 || len(result.Errors) != 0 {
		t.Fatalf("BOM prefixed file should ingest cleanly, got %+v", result)
	}
}

func paymentsWorkbook(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Order Payments"
	index, err := f.NewSheet(sheet)
	if err != nil {
		t.Fatalf("failed to create sheet: %v", err)
	}
	f.SetActiveSheet(index)

	rows := [][]any{
		{"Payments report for March"},
		{"Sub Order No", "Live Order Status", "Transaction ID", "Payment Date", "Final Settlement Amount", "Price Type"},
		{"", "", "", "", "INR", ""},
		{"SO-9001", "Delivered", "TXN-1", "2024-03-20", 450.25, "settled"},
		{"SO-9002", "Shipped", "TXN-2", "2024-03-21", 120.00, "settled"},
	}
	for idx, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, idx+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("failed to serialize workbook: %v", err)
	}
	return buf.Bytes()
}

func TestIngestPaymentsXLSX(t *testing.T) {
	h := newHarness()
	payload := paymentsWorkbook(t)

	result, err := h.service.Ingest(context.Background(), Request{
		RecordType: domain.RecordTypePayments,
		FileName:   "payments.xlsx",
		FileSize:   int64(len(payload)),
		Data:       bytes.NewReader(payload),
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	// The detected header sits below a title row, and payment data starts
	// two rows under it, past the secondary header line.
	if result.AcceptedRows != 2 {
		t.Fatalf("expected 2 accepted rows, got %+v", result)
	}
	if !strings.HasPrefix(result.BatchID, "PAY_") {
		t.Errorf("unexpected batch id %q", result.BatchID)
	}
	if len(h.payments.payments) != 2 {
		t.Fatalf("expected 2 imported payments, got %d", len(h.payments.payments))
	}
	if h.payments.payments[0].PaymentID != "TXN-1" || h.payments.payments[0].OrderID != "SO-9001" {
		t.Errorf("unexpected imported payment: %+v", h.payments.payments[0])
	}
}

func TestGenerateBatchID(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD_\d{8}_\d{6}_\d{4}$`)
	id := GenerateBatchID(domain.RecordTypeOrders)
	if !pattern.MatchString(id) {
		t.Errorf("unexpected batch id format: %q", id)
	}
	if !strings.HasPrefix(GenerateBatchID(domain.RecordTypePayments), "PAY_") {
		t.Error("expected PAY_ prefix for payment batches")
	}
}
