package domain

import "time"

// BatchIngestedEvent is published after a successful upload so downstream
// observers can react to new batches. Consumption is outside this service.
type BatchIngestedEvent struct {
	BatchID    string     `json:"batch_id"`
	RecordType RecordType `json:"record_type"`
	RowCount   int        `json:"row_count"`
	FileName   string     `json:"file_name"`
	FileSize   int64      `json:"file_size"`
	IngestedAt time.Time  `json:"ingested_at"`
}
