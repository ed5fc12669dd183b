package fleet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryFleetRepo struct {
	nextID   int64
	vehicles map[int64]*Vehicle
}

func newMemoryFleetRepo() *memoryFleetRepo {
	return &memoryFleetRepo{vehicles: make(map[int64]*Vehicle)}
}

func (m *memoryFleetRepo) CreateVehicle(_ context.Context, vehicle Vehicle) (*Vehicle, error) {
	m.nextID++
	vehicle.ID = m.nextID
	m.vehicles[vehicle.ID] = &vehicle
	clone := vehicle
	return &clone, nil
}

func (m *memoryFleetRepo) GetVehicle(_ context.Context, id int64) (*Vehicle, error) {
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, nil
	}
	clone := *vehicle
	return &clone, nil
}

func (m *memoryFleetRepo) ListVehicles(_ context.Context, status VehicleStatus) ([]Vehicle, error) {
	var out []Vehicle
	for _, vehicle := range m.vehicles {
		if status != "" && vehicle.Status != status {
			continue
		}
		out = append(out, *vehicle)
	}
	return out, nil
}

func (m *memoryFleetRepo) UpdateVehicle(_ context.Context, vehicle Vehicle) error {
	if _, ok := m.vehicles[vehicle.ID]; !ok {
		return ErrNotFound
	}
	m.vehicles[vehicle.ID] = &vehicle
	return nil
}

func TestRegisterVehicle(t *testing.T) {
	svc := NewService(newMemoryFleetRepo())
	ctx := context.Background()

	vehicle, err := svc.RegisterVehicle(ctx, CreateVehicleInput{Plate: " yg-1234 ", Model: "Hiace", CapacityKg: 800})
	require.NoError(t, err)
	assert.Equal(t, "YG-1234", vehicle.Plate)
	assert.Equal(t, VehicleAvailable, vehicle.Status)

	_, err = svc.RegisterVehicle(ctx, CreateVehicleInput{Plate: "", CapacityKg: 800})
	assert.Error(t, err)

	_, err = svc.RegisterVehicle(ctx, CreateVehicleInput{Plate: "YG-2", CapacityKg: 0})
	assert.Error(t, err)
}

func TestAssignAndReleaseDriver(t *testing.T) {
	svc := NewService(newMemoryFleetRepo())
	ctx := context.Background()

	vehicle, err := svc.RegisterVehicle(ctx, CreateVehicleInput{Plate: "YG-1", CapacityKg: 500})
	require.NoError(t, err)

	assigned, err := svc.AssignDriver(ctx, vehicle.ID, 9, "Ko Min")
	require.NoError(t, err)
	assert.Equal(t, VehicleOnRoute, assigned.Status)
	require.NotNil(t, assigned.DriverID)
	assert.Equal(t, int64(9), *assigned.DriverID)

	// An on-route vehicle cannot take a second driver.
	_, err = svc.AssignDriver(ctx, vehicle.ID, 10, "Other")
	assert.ErrorIs(t, err, ErrNotAvailable)

	released, err := svc.ReleaseDriver(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, VehicleAvailable, released.Status)
	assert.Nil(t, released.DriverID)
}

func TestSetStatusClearsDriver(t *testing.T) {
	svc := NewService(newMemoryFleetRepo())
	ctx := context.Background()

	vehicle, err := svc.RegisterVehicle(ctx, CreateVehicleInput{Plate: "YG-3", CapacityKg: 500})
	require.NoError(t, err)
	_, err = svc.AssignDriver(ctx, vehicle.ID, 9, "Ko Min")
	require.NoError(t, err)

	parked, err := svc.SetStatus(ctx, vehicle.ID, VehicleMaintenance)
	require.NoError(t, err)
	assert.Equal(t, VehicleMaintenance, parked.Status)
	assert.Nil(t, parked.DriverID)

	_, err = svc.SetStatus(ctx, vehicle.ID, "flying")
	assert.Error(t, err)
}

func TestGetVehicleNotFound(t *testing.T) {
	svc := NewService(newMemoryFleetRepo())

	_, err := svc.GetVehicle(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
