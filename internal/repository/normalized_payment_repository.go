package repository

import (
	"context"
	"fmt"

	"ecomledger/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type normalizedPaymentRepository struct {
	pool *pgxpool.Pool
}

// NewNormalizedPaymentRepository wires a repository backed by pgxpool.
func NewNormalizedPaymentRepository(pool *pgxpool.Pool) NormalizedPaymentRepository {
	return &normalizedPaymentRepository{pool: pool}
}

func (r *normalizedPaymentRepository) Upsert(ctx context.Context, record domain.NormalizedPayment) error {
	if r.pool == nil {
		return fmt.Errorf("normalized payment repository not initialized")
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO normalized_payments (payment_id, order_id, amount, payment_date, standardized_status,
		                                  original_status, transaction_id, price_type, validation_errors,
		                                  batch_id, raw_row_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (order_id) DO UPDATE SET
		     payment_id = EXCLUDED.payment_id,
		     amount = EXCLUDED.amount,
		     payment_date = EXCLUDED.payment_date,
		     standardized_status = EXCLUDED.standardized_status,
		     original_status = EXCLUDED.original_status,
		     transaction_id = EXCLUDED.transaction_id,
		     price_type = EXCLUDED.price_type,
		     validation_errors = EXCLUDED.validation_errors,
		     batch_id = EXCLUDED.batch_id,
		     raw_row_id = EXCLUDED.raw_row_id,
		     updated_at = now()`,
		record.PaymentID,
		record.OrderID,
		record.Amount,
		record.PaymentDate,
		record.StandardizedStatus,
		record.OriginalStatus,
		record.TransactionID,
		record.PriceType,
		record.ValidationErrors,
		record.BatchID,
		record.RawRowID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert normalized payment %s: %w", record.OrderID, err)
	}

	return nil
}

func (r *normalizedPaymentRepository) DeleteByBatch(ctx context.Context, batchID string) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("normalized payment repository not initialized")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM normalized_payments WHERE batch_id = $1`, batchID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete normalized payments for batch %s: %w", batchID, err)
	}

	return tag.RowsAffected(), nil
}

func (r *normalizedPaymentRepository) DeleteAll(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("normalized payment repository not initialized")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM normalized_payments`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear normalized payments: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *normalizedPaymentRepository) CountByBatch(ctx context.Context, batchID string) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("normalized payment repository not initialized")
	}

	var count int64
	sql := `SELECT COUNT(*) FROM normalized_payments WHERE ($1 = '' OR batch_id = $1)`
	if err := r.pool.QueryRow(ctx, sql, batchID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count normalized payments: %w", err)
	}

	return count, nil
}

func (r *normalizedPaymentRepository) StatusCountsByBatch(ctx context.Context, batchID string) (map[string]int64, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("normalized payment repository not initialized")
	}

	return statusCountsByBatch(ctx, r.pool, "normalized_payments", batchID)
}
