package fleet

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for the fleet registry.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const vehicleColumns = `id, plate, model, capacity_kg, status, driver_id, driver_name, created_at, updated_at`

func (r *Repository) CreateVehicle(ctx context.Context, vehicle Vehicle) (*Vehicle, error) {
	const q = `
INSERT INTO vehicles (plate, model, capacity_kg, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
RETURNING ` + vehicleColumns
	created, err := scanVehicle(r.pool.QueryRow(ctx, q,
		vehicle.Plate, vehicle.Model, vehicle.CapacityKg, vehicle.Status))
	if err != nil {
		return nil, fmt.Errorf("insert vehicle: %w", err)
	}
	return created, nil
}

func (r *Repository) GetVehicle(ctx context.Context, id int64) (*Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	vehicle, err := scanVehicle(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return vehicle, err
}

func (r *Repository) ListVehicles(ctx context.Context, status VehicleStatus) ([]Vehicle, error) {
	q := `SELECT ` + vehicleColumns + ` FROM vehicles`
	args := []any{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var list []Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *vehicle)
	}
	return list, rows.Err()
}

func (r *Repository) UpdateVehicle(ctx context.Context, vehicle Vehicle) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE vehicles
SET status = $2, driver_id = $3, driver_name = $4, updated_at = now()
WHERE id = $1`,
		vehicle.ID, vehicle.Status, vehicle.DriverID, vehicle.DriverName)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	var v Vehicle
	if err := row.Scan(
		&v.ID,
		&v.Plate,
		&v.Model,
		&v.CapacityKg,
		&v.Status,
		&v.DriverID,
		&v.DriverName,
		&v.CreatedAt,
		&v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

var _ RepositoryPort = (*Repository)(nil)
