package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"ecomledger/internal/domain"
	"ecomledger/internal/repository"

	"github.com/xuri/excelize/v2"
)

type stubMergedRepo struct {
	records []domain.MergedRecord
}

func (s *stubMergedRepo) ReplaceAll(_ context.Context, records []domain.MergedRecord) error {
	s.records = records
	return nil
}

func (s *stubMergedRepo) ListAll(_ context.Context) ([]domain.MergedRecord, error) {
	return s.records, nil
}

func (s *stubMergedRepo) Statistics(_ context.Context) (repository.MergedStatistics, error) {
	return repository.MergedStatistics{}, nil
}

func sampleRecords() []domain.MergedRecord {
	amount := 500.0
	quantity := 2
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return []domain.MergedRecord{
		{
			OrderID:          "SO-1",
			OrderAmount:      &amount,
			SettlementAmount: 450.25,
			OrderStatus:      "Delivered",
			StatusSource:     domain.StatusSourcePaymentFile,
			SKUID:            "KURTA-RED",
			OrderDate:        &date,
			Quantity:         &quantity,
			State:            "Karnataka",
			TransactionID:    "TXN-1",
		},
		{
			OrderID:          "SO-2",
			SettlementAmount: 0,
			OrderStatus:      "UNKNOWN",
			StatusSource:     domain.StatusSourceMerged,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	service := NewService(&stubMergedRepo{records: sampleRecords()})

	var buf bytes.Buffer
	count, err := service.WriteCSV(context.Background(), &buf)
	if err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows exported, got %d", count)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse export: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Order ID" || rows[0][2] != "Settlement Amount" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "SO-1" || rows[1][1] != "500.00" || rows[1][2] != "450.25" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
	if rows[1][6] != "2024-03-15" {
		t.Errorf("expected formatted order date, got %q", rows[1][6])
	}
	if rows[2][1] != "" {
		t.Errorf("expected blank order amount for payment-only record, got %q", rows[2][1])
	}
}

func TestWriteXLSX(t *testing.T) {
	service := NewService(&stubMergedRepo{records: sampleRecords()})

	var buf bytes.Buffer
	count, err := service.WriteXLSX(context.Background(), &buf)
	if err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows exported, got %d", count)
	}

	file, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows("Merged Orders")
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "SO-1" || rows[1][3] != "Delivered" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
}
