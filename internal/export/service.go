// Package export writes the reconciled ledger out as CSV or XLSX downloads.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"ecomledger/internal/domain"
	"ecomledger/internal/repository"

	"github.com/xuri/excelize/v2"
)

const dateLayout = "2006-01-02"

var exportColumns = []string{
	"Order ID",
	"Order Amount",
	"Settlement Amount",
	"Order Status",
	"Status Source",
	"SKU",
	"Order Date",
	"Payment Date",
	"Quantity",
	"State",
	"Transaction ID",
	"Dispatch Date",
	"Price Type",
}

// Service renders merged records into downloadable files.
type Service struct {
	merged repository.MergedRecordRepository
}

// NewService wires an exporter over the merged record store.
func NewService(merged repository.MergedRecordRepository) *Service {
	return &Service{merged: merged}
}

// WriteCSV streams the full merged table as CSV and returns the row count.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	records, err := s.merged.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load merged records for export: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportColumns); err != nil {
		return 0, fmt.Errorf("failed to write export header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(exportRow(record)); err != nil {
			return 0, fmt.Errorf("failed to write export row %s: %w", record.OrderID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush export: %w", err)
	}

	return len(records), nil
}

// WriteXLSX streams the full merged table as a single-sheet workbook and
// returns the row count.
func (s *Service) WriteXLSX(ctx context.Context, w io.Writer) (int, error) {
	records, err := s.merged.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load merged records for export: %w", err)
	}

	file := excelize.NewFile()
	defer file.Close()

	const sheet = "Merged Orders"
	index, err := file.NewSheet(sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to create export sheet: %w", err)
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return 0, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for col, name := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, name); err != nil {
			return 0, fmt.Errorf("failed to write export header: %w", err)
		}
	}
	for rowIdx, record := range records {
		for col, value := range exportRow(record) {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return 0, fmt.Errorf("failed to write export row %s: %w", record.OrderID, err)
			}
		}
	}

	if err := file.Write(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}

	return len(records), nil
}

func exportRow(record domain.MergedRecord) []string {
	return []string{
		record.OrderID,
		formatAmount(record.OrderAmount),
		strconv.FormatFloat(record.SettlementAmount, 'f', 2, 64),
		record.OrderStatus,
		string(record.StatusSource),
		record.SKUID,
		formatDate(record.OrderDate),
		formatDate(record.PaymentDate),
		formatQuantity(record.Quantity),
		record.State,
		record.TransactionID,
		formatDate(record.DispatchDate),
		record.PriceType,
	}
}

func formatAmount(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', 2, 64)
}

func formatQuantity(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func formatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format(dateLayout)
}
