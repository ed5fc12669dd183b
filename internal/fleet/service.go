package fleet

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("fleet: vehicle not found")
	ErrNotAvailable = errors.New("fleet: vehicle not available")
)

// RepositoryPort defines data access methods for the fleet registry.
type RepositoryPort interface {
	CreateVehicle(ctx context.Context, vehicle Vehicle) (*Vehicle, error)
	GetVehicle(ctx context.Context, id int64) (*Vehicle, error)
	ListVehicles(ctx context.Context, status VehicleStatus) ([]Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicle Vehicle) error
}

// Service handles fleet business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// RegisterVehicle adds a vehicle to the registry in available state.
func (s *Service) RegisterVehicle(ctx context.Context, input CreateVehicleInput) (*Vehicle, error) {
	plate := strings.ToUpper(strings.TrimSpace(input.Plate))
	if plate == "" {
		return nil, fmt.Errorf("fleet: plate is required")
	}
	if input.CapacityKg <= 0 {
		return nil, fmt.Errorf("fleet: capacity must be positive")
	}
	return s.repo.CreateVehicle(ctx, Vehicle{
		Plate:      plate,
		Model:      strings.TrimSpace(input.Model),
		CapacityKg: input.CapacityKg,
		Status:     VehicleAvailable,
	})
}

// GetVehicle fetches one vehicle.
func (s *Service) GetVehicle(ctx context.Context, id int64) (*Vehicle, error) {
	vehicle, err := s.repo.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, ErrNotFound
	}
	return vehicle, nil
}

// ListVehicles returns vehicles, optionally filtered by status.
func (s *Service) ListVehicles(ctx context.Context, status VehicleStatus) ([]Vehicle, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("fleet: unknown status %q", status)
	}
	return s.repo.ListVehicles(ctx, status)
}

// AssignDriver puts a driver on an available vehicle and marks it on route.
func (s *Service) AssignDriver(ctx context.Context, vehicleID, driverID int64, driverName string) (*Vehicle, error) {
	vehicle, err := s.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.Status != VehicleAvailable {
		return nil, fmt.Errorf("%w: status is %s", ErrNotAvailable, vehicle.Status)
	}
	vehicle.DriverID = &driverID
	vehicle.DriverName = driverName
	vehicle.Status = VehicleOnRoute
	if err := s.repo.UpdateVehicle(ctx, *vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// ReleaseDriver frees the vehicle back to the available pool.
func (s *Service) ReleaseDriver(ctx context.Context, vehicleID int64) (*Vehicle, error) {
	vehicle, err := s.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	vehicle.DriverID = nil
	vehicle.DriverName = ""
	if vehicle.Status == VehicleOnRoute {
		vehicle.Status = VehicleAvailable
	}
	if err := s.repo.UpdateVehicle(ctx, *vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// SetStatus moves the vehicle to an explicit state, e.g. maintenance.
func (s *Service) SetStatus(ctx context.Context, vehicleID int64, status VehicleStatus) (*Vehicle, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("fleet: unknown status %q", status)
	}
	vehicle, err := s.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	vehicle.Status = status
	if status != VehicleOnRoute {
		vehicle.DriverID = nil
		vehicle.DriverName = ""
	}
	if err := s.repo.UpdateVehicle(ctx, *vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}
