package orders

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `id, order_number, customer_id, customer_name, status, payment_method,
	total_amount, delivery_fee, tax, discount, items, pickup_address, drop_address,
	assigned_to, created_at, updated_at`

// CreateOrder inserts a new order and returns the stored row.
func (r *Repository) CreateOrder(ctx context.Context, order Order) (*Order, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO orders (order_number, customer_id, customer_name, status, payment_method,
			total_amount, delivery_fee, tax, discount, items, pickup_address, drop_address,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING `+orderColumns,
		order.Number, order.CustomerID, order.CustomerName, order.Status, order.PaymentMethod,
		order.TotalAmount, order.DeliveryFee, order.Tax, order.Discount, items,
		order.PickupAddress, order.DropAddress, order.CreatedAt)
	return scanOrder(row)
}

// GetOrder fetches an order by ID, nil when absent.
func (r *Repository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

// ListOrders returns orders matching the filter, newest first.
func (r *Repository) ListOrders(ctx context.Context, filter ListFilter) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + itoa(len(args))
	}
	if filter.CustomerID != 0 {
		args = append(args, filter.CustomerID)
		query += ` AND customer_id = $` + itoa(len(args))
	}
	if filter.Method != "" {
		args = append(args, filter.Method)
		query += ` AND payment_method = $` + itoa(len(args))
	}
	args = append(args, filter.Limit)
	query += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *order)
	}
	return out, rows.Err()
}

// UpdateOrderStatus persists a status transition.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		status, updatedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignOrder sets the responsible delivery agent.
func (r *Repository) AssignOrder(ctx context.Context, id int64, userID int64, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET assigned_to = $1, updated_at = $2 WHERE id = $3`,
		userID, updatedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		order Order
		items []byte
	)
	if err := row.Scan(&order.ID, &order.Number, &order.CustomerID, &order.CustomerName,
		&order.Status, &order.PaymentMethod, &order.TotalAmount, &order.DeliveryFee,
		&order.Tax, &order.Discount, &items, &order.PickupAddress, &order.DropAddress,
		&order.AssignedTo, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &order.Items); err != nil {
			return nil, err
		}
	}
	return &order, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

var _ RepositoryPort = (*Repository)(nil)
