package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parceldesk/parceldesk/internal/platform/db"
)

// Repository persists payment records in PostgreSQL. Invoices have no table;
// they are derived on read.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const paymentColumns = `id, order_id, amount, method, paid_at, note, created_at`

// CreatePayment inserts the payment inside a transaction that locks the
// parent order row and re-derives the open balance under that lock.
// Concurrent recordings against the same order serialise here; whichever
// lands second sees the first one's amount and is rejected if it would
// overshoot the total.
func (r *Repository) CreatePayment(ctx context.Context, payment Payment) (*Payment, error) {
	const q = `
INSERT INTO payments (order_id, amount, method, paid_at, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + paymentColumns

	var created *Payment
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var total float64
		err := tx.QueryRow(ctx, `SELECT total_amount FROM orders WHERE id = $1 FOR UPDATE`, payment.OrderID).Scan(&total)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("lock order %d: %w", payment.OrderID, err)
		}

		var paid float64
		if err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id = $1`, payment.OrderID).Scan(&paid); err != nil {
			return fmt.Errorf("sum payments for order %d: %w", payment.OrderID, err)
		}
		if payment.Amount > total-paid {
			return fmt.Errorf("%w: %.2f > %.2f", ErrExceedsBalance, payment.Amount, total-paid)
		}

		row := tx.QueryRow(ctx, q,
			payment.OrderID,
			payment.Amount,
			payment.Method,
			payment.PaidAt,
			payment.Note,
			payment.CreatedAt,
		)
		p, err := scanPayment(row)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repository) ListPayments(ctx context.Context) ([]Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments ORDER BY paid_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *Repository) ListPaymentsByOrder(ctx context.Context, orderID int64) ([]Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 ORDER BY paid_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments for order %d: %w", orderID, err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

func collectPayments(rows pgx.Rows) ([]Payment, error) {
	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	if err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.Amount,
		&p.Method,
		&p.PaidAt,
		&p.Note,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

var _ PaymentsPort = (*Repository)(nil)
