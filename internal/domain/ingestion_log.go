package domain

import (
	"time"

	"github.com/google/uuid"
)

// IngestionLogEntry captures row level issues that occur during ingestion or
// normalization, persisted for observability.
type IngestionLogEntry struct {
	ID           uuid.UUID  `json:"id"`
	BatchID      string     `json:"batch_id"`
	RecordType   RecordType `json:"record_type"`
	FileName     string     `json:"file_name"`
	RowNumber    *int       `json:"row_number,omitempty"`
	ErrorMessage string     `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
}
