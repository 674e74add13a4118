package repository

import (
	"context"
	"fmt"

	"ecomledger/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rawRecordRepository struct {
	pool *pgxpool.Pool
}

// NewRawRecordRepository wires a repository backed by pgxpool.
func NewRawRecordRepository(pool *pgxpool.Pool) RawRecordRepository {
	return &rawRecordRepository{pool: pool}
}

func rawTable(rt domain.RecordType) string {
	if rt == domain.RecordTypePayments {
		return "payments_raw"
	}
	return "orders_raw"
}

func (r *rawRecordRepository) Insert(ctx context.Context, record domain.RawRecord) error {
	if r.pool == nil {
		return fmt.Errorf("raw record repository not initialized")
	}

	sql := fmt.Sprintf(
		`INSERT INTO %s (id, batch_id, row_number, raw_data, validation_status, validation_errors, processed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rawTable(record.RecordType),
	)

	_, err := r.pool.Exec(
		ctx,
		sql,
		record.ID,
		record.BatchID,
		record.RowNumber,
		record.RawData,
		string(record.ValidationStatus),
		record.ValidationErrors,
		record.Processed,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to stage raw record: %w", err)
	}

	return nil
}

func (r *rawRecordRepository) ListUnprocessed(ctx context.Context, rt domain.RecordType, batchID string, limit int) ([]domain.RawRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("raw record repository not initialized")
	}

	if limit <= 0 {
		limit = 100
	}

	sql := fmt.Sprintf(
		`SELECT id, batch_id, row_number, raw_data, validation_status, validation_errors, processed, created_at
		 FROM %s
		 WHERE processed = FALSE AND validation_status <> $3 AND ($1 = '' OR batch_id = $1)
		 ORDER BY row_number
		 LIMIT $2`,
		rawTable(rt),
	)

	rows, err := r.pool.Query(ctx, sql, batchID, limit, string(domain.ValidationInvalid))
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed raw records: %w", err)
	}
	defer rows.Close()

	records := []domain.RawRecord{}
	for rows.Next() {
		var (
			record           domain.RawRecord
			status           string
			validationErrors pgtype.Text
			createdAt        pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&record.ID,
			&record.BatchID,
			&record.RowNumber,
			&record.RawData,
			&status,
			&validationErrors,
			&record.Processed,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan raw record: %w", scanErr)
		}

		record.RecordType = rt
		record.ValidationStatus = domain.ValidationStatus(status)
		if validationErrors.Valid {
			value := validationErrors.String
			record.ValidationErrors = &value
		}
		if createdAt.Valid {
			record.CreatedAt = createdAt.Time
		}

		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate raw records: %w", rowsErr)
	}

	return records, nil
}

func (r *rawRecordRepository) MarkProcessed(ctx context.Context, rt domain.RecordType, ids []uuid.UUID) error {
	if r.pool == nil {
		return fmt.Errorf("raw record repository not initialized")
	}
	if len(ids) == 0 {
		return nil
	}

	sql := fmt.Sprintf(
		`UPDATE %s SET processed = TRUE, validation_status = $2 WHERE id = ANY($1)`,
		rawTable(rt),
	)

	if _, err := r.pool.Exec(ctx, sql, ids, string(domain.ValidationProcessed)); err != nil {
		return fmt.Errorf("failed to mark raw records processed: %w", err)
	}

	return nil
}

func (r *rawRecordRepository) MarkInvalid(ctx context.Context, rt domain.RecordType, id uuid.UUID, message string) error {
	if r.pool == nil {
		return fmt.Errorf("raw record repository not initialized")
	}

	sql := fmt.Sprintf(
		`UPDATE %s SET processed = TRUE, validation_status = $2, validation_errors = $3 WHERE id = $1`,
		rawTable(rt),
	)

	if _, err := r.pool.Exec(ctx, sql, id, string(domain.ValidationInvalid), message); err != nil {
		return fmt.Errorf("failed to mark raw record invalid: %w", err)
	}

	return nil
}

func (r *rawRecordRepository) ResetBatch(ctx context.Context, rt domain.RecordType, batchID string) error {
	if r.pool == nil {
		return fmt.Errorf("raw record repository not initialized")
	}

	sql := fmt.Sprintf(
		`UPDATE %s
		 SET processed = FALSE, validation_status = $2, validation_errors = NULL
		 WHERE ($1 = '' OR batch_id = $1)`,
		rawTable(rt),
	)

	if _, err := r.pool.Exec(ctx, sql, batchID, string(domain.ValidationValid)); err != nil {
		return fmt.Errorf("failed to reset raw batch: %w", err)
	}

	return nil
}

func (r *rawRecordRepository) BatchStats(ctx context.Context, rt domain.RecordType, batchID string) (RawBatchStats, error) {
	if r.pool == nil {
		return RawBatchStats{}, fmt.Errorf("raw record repository not initialized")
	}

	sql := fmt.Sprintf(
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE validation_status <> $2),
		        COUNT(*) FILTER (WHERE processed = TRUE)
		 FROM %s
		 WHERE ($1 = '' OR batch_id = $1)`,
		rawTable(rt),
	)

	var stats RawBatchStats
	if err := r.pool.QueryRow(ctx, sql, batchID, string(domain.ValidationInvalid)).Scan(
		&stats.Total,
		&stats.Valid,
		&stats.Processed,
	); err != nil {
		return RawBatchStats{}, fmt.Errorf("failed to collect raw batch stats: %w", err)
	}

	return stats, nil
}
