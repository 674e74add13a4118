package repository

import (
	"context"
	"fmt"

	"ecomledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository wires a repository backed by pgxpool.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

func (r *orderRepository) UpsertBatch(ctx context.Context, orders []domain.Order) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("order repository not initialized")
	}
	if len(orders) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to open transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	written := 0
	for _, order := range orders {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO orders (order_id, sku, quantity, selling_price, order_date_time, product_name,
			                     customer_state, size, supplier_listed_price, supplier_discounted_price,
			                     packet_id, reason_for_credit_entry)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (order_id) DO UPDATE SET
			     sku = EXCLUDED.sku,
			     quantity = EXCLUDED.quantity,
			     selling_price = EXCLUDED.selling_price,
			     order_date_time = EXCLUDED.order_date_time,
			     product_name = EXCLUDED.product_name,
			     customer_state = EXCLUDED.customer_state,
			     size = EXCLUDED.size,
			     supplier_listed_price = EXCLUDED.supplier_listed_price,
			     supplier_discounted_price = EXCLUDED.supplier_discounted_price,
			     packet_id = EXCLUDED.packet_id,
			     reason_for_credit_entry = EXCLUDED.reason_for_credit_entry`,
			order.OrderID,
			order.SKU,
			order.Quantity,
			order.SellingPrice,
			order.OrderDateTime,
			order.ProductName,
			order.CustomerState,
			order.Size,
			order.SupplierListedPrice,
			order.SupplierDiscountedPrice,
			order.PacketID,
			order.ReasonForCreditEntry,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert order %s: %w", order.OrderID, err)
		}
		written++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit order batch: %w", err)
	}

	return written, nil
}

func (r *orderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("order repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, order_id, sku, quantity, selling_price, order_date_time, product_name,
		        customer_state, size, supplier_listed_price, supplier_discounted_price,
		        packet_id, reason_for_credit_entry
		 FROM orders
		 ORDER BY order_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		orders = append(orders, order)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", rowsErr)
	}

	return orders, nil
}

func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("order repository not initialized")
	}

	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return count, nil
}

func scanOrder(rows pgx.Rows) (domain.Order, error) {
	var (
		order           domain.Order
		sku             pgtype.Text
		quantity        pgtype.Int4
		sellingPrice    pgtype.Float8
		orderDateTime   pgtype.Timestamptz
		productName     pgtype.Text
		customerState   pgtype.Text
		size            pgtype.Text
		listedPrice     pgtype.Float8
		discountedPrice pgtype.Float8
		packetID        pgtype.Text
		creditReason    pgtype.Text
	)

	if err := rows.Scan(
		&order.ID,
		&order.OrderID,
		&sku,
		&quantity,
		&sellingPrice,
		&orderDateTime,
		&productName,
		&customerState,
		&size,
		&listedPrice,
		&discountedPrice,
		&packetID,
		&creditReason,
	); err != nil {
		return domain.Order{}, fmt.Errorf("failed to scan order: %w", err)
	}

	order.SKU = sku.String
	if quantity.Valid {
		order.Quantity = int(quantity.Int32)
	}
	if sellingPrice.Valid {
		value := sellingPrice.Float64
		order.SellingPrice = &value
	}
	if orderDateTime.Valid {
		value := orderDateTime.Time
		order.OrderDateTime = &value
	}
	order.ProductName = productName.String
	order.CustomerState = customerState.String
	order.Size = size.String
	if listedPrice.Valid {
		value := listedPrice.Float64
		order.SupplierListedPrice = &value
	}
	if discountedPrice.Valid {
		value := discountedPrice.Float64
		order.SupplierDiscountedPrice = &value
	}
	order.PacketID = packetID.String
	order.ReasonForCreditEntry = creditReason.String

	return order, nil
}
