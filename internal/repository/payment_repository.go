package repository

import (
	"context"
	"fmt"

	"ecomledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository wires a repository backed by pgxpool.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

func (r *paymentRepository) UpsertBatch(ctx context.Context, payments []domain.Payment) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("payment repository not initialized")
	}
	if len(payments) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to open transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	written := 0
	for _, payment := range payments {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO payments (payment_id, order_id, supplier_sku, amount, payment_date_time,
			                       order_date_time, order_status, quantity, product_name, transaction_id,
			                       final_settlement_amount, price_type, dispatch_date, product_gst_percent,
			                       listing_price_incl_taxes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			 ON CONFLICT (payment_id) DO UPDATE SET
			     order_id = EXCLUDED.order_id,
			     supplier_sku = EXCLUDED.supplier_sku,
			     amount = EXCLUDED.amount,
			     payment_date_time = EXCLUDED.payment_date_time,
			     order_date_time = EXCLUDED.order_date_time,
			     order_status = EXCLUDED.order_status,
			     quantity = EXCLUDED.quantity,
			     product_name = EXCLUDED.product_name,
			     transaction_id = EXCLUDED.transaction_id,
			     final_settlement_amount = EXCLUDED.final_settlement_amount,
			     price_type = EXCLUDED.price_type,
			     dispatch_date = EXCLUDED.dispatch_date,
			     product_gst_percent = EXCLUDED.product_gst_percent,
			     listing_price_incl_taxes = EXCLUDED.listing_price_incl_taxes`,
			payment.PaymentID,
			payment.OrderID,
			payment.SupplierSKU,
			payment.Amount,
			payment.PaymentDateTime,
			payment.OrderDateTime,
			payment.OrderStatus,
			payment.Quantity,
			payment.ProductName,
			payment.TransactionID,
			payment.FinalSettlementAmount,
			payment.PriceType,
			payment.DispatchDate,
			payment.ProductGSTPercent,
			payment.ListingPriceInclTaxes,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert payment %s: %w", payment.PaymentID, err)
		}
		written++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit payment batch: %w", err)
	}

	return written, nil
}

func (r *paymentRepository) ListAll(ctx context.Context) ([]domain.Payment, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("payment repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, payment_id, order_id, supplier_sku, amount, payment_date_time, order_date_time,
		        order_status, quantity, product_name, transaction_id, final_settlement_amount,
		        price_type, dispatch_date, product_gst_percent, listing_price_incl_taxes
		 FROM payments
		 ORDER BY order_id, payment_date_time`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		payment, scanErr := scanPayment(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		payments = append(payments, payment)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", rowsErr)
	}

	return payments, nil
}

func (r *paymentRepository) Count(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("payment repository not initialized")
	}

	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}

	return count, nil
}

func scanPayment(rows pgx.Rows) (domain.Payment, error) {
	var (
		payment       domain.Payment
		supplierSKU   pgtype.Text
		amount        pgtype.Float8
		paymentDate   pgtype.Timestamptz
		orderDate     pgtype.Timestamptz
		orderStatus   pgtype.Text
		quantity      pgtype.Int4
		productName   pgtype.Text
		transactionID pgtype.Text
		settlement    pgtype.Float8
		priceType     pgtype.Text
		dispatchDate  pgtype.Timestamptz
		gstPercent    pgtype.Float8
		listingPrice  pgtype.Float8
	)

	if err := rows.Scan(
		&payment.ID,
		&payment.PaymentID,
		&payment.OrderID,
		&supplierSKU,
		&amount,
		&paymentDate,
		&orderDate,
		&orderStatus,
		&quantity,
		&productName,
		&transactionID,
		&settlement,
		&priceType,
		&dispatchDate,
		&gstPercent,
		&listingPrice,
	); err != nil {
		return domain.Payment{}, fmt.Errorf("failed to scan payment: %w", err)
	}

	payment.SupplierSKU = supplierSKU.String
	if amount.Valid {
		value := amount.Float64
		payment.Amount = &value
	}
	if paymentDate.Valid {
		value := paymentDate.Time
		payment.PaymentDateTime = &value
	}
	if orderDate.Valid {
		value := orderDate.Time
		payment.OrderDateTime = &value
	}
	payment.OrderStatus = orderStatus.String
	if quantity.Valid {
		value := int(quantity.Int32)
		payment.Quantity = &value
	}
	payment.ProductName = productName.String
	payment.TransactionID = transactionID.String
	if settlement.Valid {
		value := settlement.Float64
		payment.FinalSettlementAmount = &value
	}
	payment.PriceType = priceType.String
	if dispatchDate.Valid {
		value := dispatchDate.Time
		payment.DispatchDate = &value
	}
	if gstPercent.Valid {
		value := gstPercent.Float64
		payment.ProductGSTPercent = &value
	}
	if listingPrice.Valid {
		value := listingPrice.Float64
		payment.ListingPriceInclTaxes = &value
	}

	return payment, nil
}
