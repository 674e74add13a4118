package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"ecomledger/internal/domain"
	"ecomledger/internal/events"
	"ecomledger/internal/metrics"
	"ecomledger/internal/repository"
	"ecomledger/internal/schema/validator"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

	timeLayouts = []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.000",
		"2006/01/02",
		"01/02/2006",
		"02/01/2006",
	}
)

// Rebuilder re-runs reconciliation after a successful upload.
type Rebuilder interface {
	Rebuild(ctx context.Context) (int, error)
}

// Service ingests marketplace export files: it validates the header schema,
// stages one raw record per data row, imports canonical orders or payments,
// and signals the finished batch.
type Service struct {
	rawRepo   repository.RawRecordRepository
	logRepo   repository.IngestionLogRepository
	importer  *Importer
	publisher events.Publisher
	registry  *metrics.Registry
	merger    Rebuilder
}

// NewService creates a new ingestion service.
func NewService(
	rawRepo repository.RawRecordRepository,
	logRepo repository.IngestionLogRepository,
	importer *Importer,
	publisher events.Publisher,
	registry *metrics.Registry,
	merger Rebuilder,
) *Service {
	return &Service{
		rawRepo:   rawRepo,
		logRepo:   logRepo,
		importer:  importer,
		publisher: publisher,
		registry:  registry,
		merger:    merger,
	}
}

// Request describes the ingestion input.
type Request struct {
	RecordType domain.RecordType
	FileName   string
	FileSize   int64
	Data       io.Reader
}

// Result reports the outcome of one upload batch. A schema rejection is a
// Result with Errors set, not a transport error.
type Result struct {
	BatchID         string    `json:"batchId"`
	AcceptedRows    int       `json:"acceptedRows"`
	RejectedRows    int       `json:"rejectedRows"`
	ImportedRecords int       `json:"importedRecords"`
	WarningsCount   int       `json:"warningsCount"`
	Warnings        []string  `json:"warnings"`
	Errors          []string  `json:"errors"`
	IngestedAt      time.Time `json:"ingestedAt"`
}

type tableData struct {
	headers        []string
	rows           [][]string
	headerRowIndex int
}

// Ingest reads the uploaded file, validates its header row, stages raw
// records, and imports canonical entities.
func (s *Service) Ingest(ctx context.Context, req Request) (Result, error) {
	result := Result{
		BatchID:    GenerateBatchID(req.RecordType),
		Warnings:   []string{},
		Errors:     []string{},
		IngestedAt: time.Now(),
	}

	if req.Data == nil {
		return result, errors.New("data reader is required")
	}

	started := time.Now()
	defer func() {
		if s.registry != nil {
			s.registry.UploadSeconds.Observe(time.Since(started).Seconds())
		}
	}()

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return result, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return result, errors.New("file is empty")
	}

	table, err := parseTable(req.FileName, payload, req.RecordType)
	if err != nil {
		return result, err
	}
	if len(table.headers) == 0 {
		return result, errors.New("no header row detected")
	}

	schemaResult := validator.Validate(table.headers, req.RecordType)
	result.Warnings = append(result.Warnings, schemaResult.Warnings...)
	if !schemaResult.Valid {
		result.Errors = append(result.Errors, schemaResult.Errors...)
		result.WarningsCount = len(result.Warnings)
		s.logBatchError(ctx, req, result.BatchID, nil, strings.Join(schemaResult.Errors, "; "))
		log.Printf("[INGEST] Batch %s rejected: %v", result.BatchID, schemaResult.Errors)
		return result, nil
	}

	for i, row := range table.rows {
		rowNumber := i + 1
		record := domain.NewRawRecord(req.RecordType, result.BatchID, rowNumber, strings.Join(row, ","))
		if err := s.rawRepo.Insert(ctx, record); err != nil {
			result.RejectedRows++
			message := fmt.Sprintf("row %d staging failed: %v", rowNumber, err)
			result.Errors = append(result.Errors, message)
			s.logBatchError(ctx, req, result.BatchID, &rowNumber, message)
			continue
		}
		result.AcceptedRows++
	}

	if s.registry != nil {
		s.registry.RowsStaged.Add(float64(result.AcceptedRows))
		s.registry.RowsRejected.Add(float64(result.RejectedRows))
	}

	imported, importWarnings, err := s.importer.Import(ctx, req.RecordType, table)
	result.Warnings = append(result.Warnings, importWarnings...)
	if err != nil {
		message := fmt.Sprintf("canonical import failed: %v", err)
		result.Errors = append(result.Errors, message)
		s.logBatchError(ctx, req, result.BatchID, nil, message)
	}
	result.ImportedRecords = imported

	result.WarningsCount = len(result.Warnings)

	s.publishBatchIngested(ctx, req, result)

	if s.merger != nil && imported > 0 {
		if rebuilt, err := s.merger.Rebuild(ctx); err != nil {
			log.Printf("[INGEST] Merge rebuild after batch %s failed: %v", result.BatchID, err)
		} else {
			log.Printf("[INGEST] Merge rebuilt %d records after batch %s", rebuilt, result.BatchID)
		}
	}

	log.Printf("[INGEST] Batch %s: accepted=%d rejected=%d imported=%d warnings=%d",
		result.BatchID, result.AcceptedRows, result.RejectedRows, result.ImportedRecords, result.WarningsCount)

	return result, nil
}

// GenerateBatchID builds a batch identifier from the record type prefix, a
// second precision timestamp, and a random suffix.
func GenerateBatchID(rt domain.RecordType) string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%04d", rt.BatchPrefix(), timestamp, rand.Intn(10000))
}

func parseTable(fileName string, payload []byte, rt domain.RecordType) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload, rt)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}

	var headerRow []string
	var dataRows [][]string
	headerIndex := -1

	for idx, row := range records {
		if isEmptyRow(row) {
			continue
		}
		if headerRow == nil {
			headerRow = row
			headerIndex = idx
			continue
		}
		dataRows = append(dataRows, row)
	}

	if headerRow == nil {
		return tableData{}, errors.New("no rows found in file")
	}

	return buildTable(headerRow, dataRows, headerIndex), nil
}

func parseExcel(payload []byte, rt domain.RecordType) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}

	sheet := pickSheet(sheets, rt)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	headerIndex := findHeaderRow(rows, rt)
	if headerIndex < 0 {
		return tableData{}, errors.New("no valid header row found")
	}

	// Payment exports carry a secondary header line, so data starts two rows
	// below the detected header. Orders start on the next row.
	dataStart := headerIndex + 1
	if rt == domain.RecordTypePayments {
		dataStart = headerIndex + 2
	}

	var dataRows [][]string
	for idx := dataStart; idx < len(rows); idx++ {
		if isEmptyRow(rows[idx]) {
			continue
		}
		dataRows = append(dataRows, rows[idx])
	}

	return buildTable(rows[headerIndex], dataRows, headerIndex), nil
}

// pickSheet prefers the "Order Payments" sheet for payment exports.
func pickSheet(sheets []string, rt domain.RecordType) string {
	if rt == domain.RecordTypePayments {
		for _, name := range sheets {
			lower := strings.ToLower(name)
			if strings.Contains(lower, "order") && strings.Contains(lower, "payment") {
				return name
			}
		}
	}
	return sheets[0]
}

// findHeaderRow scans the first 20 rows for one containing at least two of
// the expected columns for the record type.
func findHeaderRow(rows [][]string, rt domain.RecordType) int {
	expected := validator.ExpectedColumns(rt)

	limit := len(rows)
	if limit > 20 {
		limit = 20
	}

	for idx := 0; idx < limit; idx++ {
		matches := 0
		for _, cell := range rows[idx] {
			if _, ok := expected[normalizeHeader(cell)]; ok {
				matches++
			}
		}
		if matches >= 2 {
			return idx
		}
	}

	return -1
}

func buildTable(headerRow []string, dataRows [][]string, headerIndex int) tableData {
	headers := make([]string, len(headerRow))
	for i, value := range headerRow {
		headers[i] = strings.TrimSpace(value)
	}

	for i := range dataRows {
		dataRows[i] = padRow(dataRows[i], len(headers))
	}

	return tableData{
		headers:        headers,
		rows:           dataRows,
		headerRowIndex: headerIndex,
	}
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}

func (s *Service) publishBatchIngested(ctx context.Context, req Request, result Result) {
	if s.publisher == nil {
		return
	}
	event := domain.BatchIngestedEvent{
		BatchID:    result.BatchID,
		RecordType: req.RecordType,
		RowCount:   result.AcceptedRows + result.RejectedRows,
		FileName:   req.FileName,
		FileSize:   req.FileSize,
		IngestedAt: result.IngestedAt,
	}
	if err := s.publisher.PublishBatchIngested(ctx, event); err != nil {
		log.Printf("[INGEST] Failed to publish batch ingested event for %s: %v", result.BatchID, err)
	}
}

func (s *Service) logBatchError(ctx context.Context, req Request, batchID string, rowNumber *int, message string) {
	if s.logRepo == nil || message == "" {
		return
	}
	entry := domain.IngestionLogEntry{
		BatchID:      batchID,
		RecordType:   req.RecordType,
		FileName:     req.FileName,
		ErrorMessage: message,
	}
	if rowNumber != nil {
		entry.RowNumber = rowNumber
	}
	_ = s.logRepo.Record(ctx, entry)
}
