package domain

import (
	"time"

	"github.com/google/uuid"
)

// ValidationStatus tracks the lifecycle of a staged raw row.
type ValidationStatus string

const (
	ValidationPending   ValidationStatus = "PENDING"
	ValidationValid     ValidationStatus = "VALID"
	ValidationInvalid   ValidationStatus = "INVALID"
	ValidationProcessed ValidationStatus = "PROCESSED"
)

// RawRecord is one staged, unparsed row from an uploaded file. Records are
// immutable after staging except for the processed flag and validation errors,
// which only the normalization processor mutates.
type RawRecord struct {
	ID               uuid.UUID        `json:"id"`
	RecordType       RecordType       `json:"record_type"`
	BatchID          string           `json:"batch_id"`
	RowNumber        int              `json:"row_number"`
	RawData          string           `json:"raw_data"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	ValidationErrors *string          `json:"validation_errors,omitempty"`
	Processed        bool             `json:"processed"`
	CreatedAt        time.Time        `json:"created_at"`
}

// NewRawRecord stages one row of an upload batch.
func NewRawRecord(rt RecordType, batchID string, rowNumber int, rawData string) RawRecord {
	return RawRecord{
		ID:               uuid.New(),
		RecordType:       rt,
		BatchID:          batchID,
		RowNumber:        rowNumber,
		RawData:          rawData,
		ValidationStatus: ValidationValid,
		Processed:        false,
		CreatedAt:        time.Now(),
	}
}
