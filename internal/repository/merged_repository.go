package repository

import (
	"context"
	"fmt"

	"ecomledger/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type mergedRecordRepository struct {
	pool *pgxpool.Pool
}

// NewMergedRecordRepository wires a repository backed by pgxpool.
func NewMergedRecordRepository(pool *pgxpool.Pool) MergedRecordRepository {
	return &mergedRecordRepository{pool: pool}
}

func (r *mergedRecordRepository) ReplaceAll(ctx context.Context, records []domain.MergedRecord) error {
	if r.pool == nil {
		return fmt.Errorf("merged record repository not initialized")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to open transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM merged_orders`); err != nil {
		return fmt.Errorf("failed to clear merged orders: %w", err)
	}

	for _, record := range records {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO merged_orders (order_id, order_amount, settlement_amount, order_status, status_source,
			                            sku_id, order_date, payment_date, quantity, state, transaction_id,
			                            dispatch_date, price_type)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			record.OrderID,
			record.OrderAmount,
			record.SettlementAmount,
			record.OrderStatus,
			string(record.StatusSource),
			record.SKUID,
			record.OrderDate,
			record.PaymentDate,
			record.Quantity,
			record.State,
			record.TransactionID,
			record.DispatchDate,
			record.PriceType,
		)
		if err != nil {
			return fmt.Errorf("failed to insert merged order %s: %w", record.OrderID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit merged rebuild: %w", err)
	}

	return nil
}

func (r *mergedRecordRepository) ListAll(ctx context.Context) ([]domain.MergedRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("merged record repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, order_id, order_amount, settlement_amount, order_status, status_source, sku_id,
		        order_date, payment_date, quantity, state, transaction_id, dispatch_date, price_type
		 FROM merged_orders
		 ORDER BY order_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list merged orders: %w", err)
	}
	defer rows.Close()

	records := []domain.MergedRecord{}
	for rows.Next() {
		var (
			record        domain.MergedRecord
			orderAmount   pgtype.Float8
			orderStatus   pgtype.Text
			statusSource  pgtype.Text
			skuID         pgtype.Text
			orderDate     pgtype.Timestamptz
			paymentDate   pgtype.Timestamptz
			quantity      pgtype.Int4
			state         pgtype.Text
			transactionID pgtype.Text
			dispatchDate  pgtype.Timestamptz
			priceType     pgtype.Text
		)
		if scanErr := rows.Scan(
			&record.ID,
			&record.OrderID,
			&orderAmount,
			&record.SettlementAmount,
			&orderStatus,
			&statusSource,
			&skuID,
			&orderDate,
			&paymentDate,
			&quantity,
			&state,
			&transactionID,
			&dispatchDate,
			&priceType,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan merged order: %w", scanErr)
		}

		if orderAmount.Valid {
			value := orderAmount.Float64
			record.OrderAmount = &value
		}
		record.OrderStatus = orderStatus.String
		record.StatusSource = domain.StatusSource(statusSource.String)
		record.SKUID = skuID.String
		if orderDate.Valid {
			value := orderDate.Time
			record.OrderDate = &value
		}
		if paymentDate.Valid {
			value := paymentDate.Time
			record.PaymentDate = &value
		}
		if quantity.Valid {
			value := int(quantity.Int32)
			record.Quantity = &value
		}
		record.State = state.String
		record.TransactionID = transactionID.String
		if dispatchDate.Valid {
			value := dispatchDate.Time
			record.DispatchDate = &value
		}
		record.PriceType = priceType.String

		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate merged orders: %w", rowsErr)
	}

	return records, nil
}

func (r *mergedRecordRepository) Statistics(ctx context.Context) (MergedStatistics, error) {
	if r.pool == nil {
		return MergedStatistics{}, fmt.Errorf("merged record repository not initialized")
	}

	stats := MergedStatistics{
		CountByStatus:       map[string]int64{},
		CountByStatusSource: map[string]int64{},
	}

	err := r.pool.QueryRow(
		ctx,
		`SELECT COUNT(*), COALESCE(SUM(order_amount), 0), COALESCE(SUM(settlement_amount), 0)
		 FROM merged_orders`,
	).Scan(&stats.TotalRecords, &stats.TotalOrderAmount, &stats.TotalSettlement)
	if err != nil {
		return MergedStatistics{}, fmt.Errorf("failed to aggregate merged orders: %w", err)
	}

	byStatus, err := countByColumn(ctx, r.pool, "merged_orders", "order_status")
	if err != nil {
		return MergedStatistics{}, err
	}
	stats.CountByStatus = byStatus

	bySource, err := countByColumn(ctx, r.pool, "merged_orders", "status_source")
	if err != nil {
		return MergedStatistics{}, err
	}
	stats.CountByStatusSource = bySource

	return stats, nil
}
