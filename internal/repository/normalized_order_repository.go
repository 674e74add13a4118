package repository

import (
	"context"
	"errors"
	"fmt"

	"ecomledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type normalizedOrderRepository struct {
	pool *pgxpool.Pool
}

// NewNormalizedOrderRepository wires a repository backed by pgxpool.
func NewNormalizedOrderRepository(pool *pgxpool.Pool) NormalizedOrderRepository {
	return &normalizedOrderRepository{pool: pool}
}

func (r *normalizedOrderRepository) Upsert(ctx context.Context, record domain.NormalizedOrder) error {
	if r.pool == nil {
		return fmt.Errorf("normalized order repository not initialized")
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO normalized_orders (order_id, sku, quantity, selling_price, order_date, product_name,
		                                customer_state, size, supplier_listed_price, supplier_discounted_price,
		                                packet_id, standardized_status, original_status, supplier_sku,
		                                sku_resolved, validation_errors, batch_id, raw_row_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 ON CONFLICT (order_id) DO UPDATE SET
		     sku = EXCLUDED.sku,
		     quantity = EXCLUDED.quantity,
		     selling_price = EXCLUDED.selling_price,
		     order_date = EXCLUDED.order_date,
		     product_name = EXCLUDED.product_name,
		     customer_state = EXCLUDED.customer_state,
		     size = EXCLUDED.size,
		     supplier_listed_price = EXCLUDED.supplier_listed_price,
		     supplier_discounted_price = EXCLUDED.supplier_discounted_price,
		     packet_id = EXCLUDED.packet_id,
		     standardized_status = EXCLUDED.standardized_status,
		     original_status = EXCLUDED.original_status,
		     supplier_sku = EXCLUDED.supplier_sku,
		     sku_resolved = EXCLUDED.sku_resolved,
		     validation_errors = EXCLUDED.validation_errors,
		     batch_id = EXCLUDED.batch_id,
		     raw_row_id = EXCLUDED.raw_row_id,
		     updated_at = now()`,
		record.OrderID,
		record.SKU,
		record.Quantity,
		record.SellingPrice,
		record.OrderDate,
		record.ProductName,
		record.CustomerState,
		record.Size,
		record.SupplierListedPrice,
		record.SupplierDiscountedPrice,
		record.PacketID,
		record.StandardizedStatus,
		record.OriginalStatus,
		record.SupplierSKU,
		record.SKUResolved,
		record.ValidationErrors,
		record.BatchID,
		record.RawRowID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert normalized order %s: %w", record.OrderID, err)
	}

	return nil
}

func (r *normalizedOrderRepository) DeleteByBatch(ctx context.Context, batchID string) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("normalized order repository not initialized")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM normalized_orders WHERE batch_id = $1`, batchID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete normalized orders for batch %s: %w", batchID, err)
	}

	return tag.RowsAffected(), nil
}

func (r *normalizedOrderRepository) DeleteAll(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("normalized order repository not initialized")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM normalized_orders`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear normalized orders: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *normalizedOrderRepository) CountByBatch(ctx context.Context, batchID string) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("normalized order repository not initialized")
	}

	var count int64
	sql := `SELECT COUNT(*) FROM normalized_orders WHERE ($1 = '' OR batch_id = $1)`
	if err := r.pool.QueryRow(ctx, sql, batchID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count normalized orders: %w", err)
	}

	return count, nil
}

func (r *normalizedOrderRepository) CountResolvedByBatch(ctx context.Context, batchID string, resolved bool) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("normalized order repository not initialized")
	}

	var count int64
	sql := `SELECT COUNT(*) FROM normalized_orders WHERE ($1 = '' OR batch_id = $1) AND sku_resolved = $2`
	if err := r.pool.QueryRow(ctx, sql, batchID, resolved).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count normalized orders by resolution: %w", err)
	}

	return count, nil
}

func (r *normalizedOrderRepository) StatusCountsByBatch(ctx context.Context, batchID string) (map[string]int64, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("normalized order repository not initialized")
	}

	return statusCountsByBatch(ctx, r.pool, "normalized_orders", batchID)
}

func (r *normalizedOrderRepository) FindSKUBySupplierSKU(ctx context.Context, supplierSKU string) (string, error) {
	if r.pool == nil {
		return "", fmt.Errorf("normalized order repository not initialized")
	}

	var sku string
	err := r.pool.QueryRow(
		ctx,
		`SELECT sku FROM normalized_orders
		 WHERE supplier_sku = $1 AND sku_resolved = TRUE AND sku <> ''
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		supplierSKU,
	).Scan(&sku)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up supplier sku %s: %w", supplierSKU, err)
	}

	return sku, nil
}

func statusCountsByBatch(ctx context.Context, pool *pgxpool.Pool, table, batchID string) (map[string]int64, error) {
	sql := fmt.Sprintf(
		`SELECT COALESCE(standardized_status, ''), COUNT(*)
		 FROM %s
		 WHERE ($1 = '' OR batch_id = $1)
		 GROUP BY 1`,
		table,
	)

	rows, err := pool.Query(ctx, sql, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s statuses: %w", table, err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var (
			key   string
			count int64
		)
		if scanErr := rows.Scan(&key, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan %s aggregate: %w", table, scanErr)
		}
		counts[key] = count
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate %s aggregates: %w", table, rowsErr)
	}

	return counts, nil
}

func countByColumn(ctx context.Context, pool *pgxpool.Pool, table, column string) (map[string]int64, error) {
	sql := fmt.Sprintf(
		`SELECT COALESCE(%s, ''), COUNT(*) FROM %s GROUP BY 1`,
		column, table,
	)

	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var (
			key   string
			count int64
		)
		if scanErr := rows.Scan(&key, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan %s aggregate: %w", table, scanErr)
		}
		counts[key] = count
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate %s aggregates: %w", table, rowsErr)
	}

	return counts, nil
}
