package fleet

import "time"

// VehicleStatus enumerates the operational state of a vehicle.
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleOnRoute     VehicleStatus = "on_route"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleRetired     VehicleStatus = "retired"
)

func (s VehicleStatus) IsValid() bool {
	switch s {
	case VehicleAvailable, VehicleOnRoute, VehicleMaintenance, VehicleRetired:
		return true
	}
	return false
}

// Vehicle is one unit of the delivery fleet. DriverID is nil while the
// vehicle is unassigned.
type Vehicle struct {
	ID         int64         `json:"id"`
	Plate      string        `json:"plate"`
	Model      string        `json:"model"`
	CapacityKg float64       `json:"capacity_kg"`
	Status     VehicleStatus `json:"status"`
	DriverID   *int64        `json:"driver_id,omitempty"`
	DriverName string        `json:"driver_name,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CreateVehicleInput carries the fields accepted when registering a vehicle.
type CreateVehicleInput struct {
	Plate      string
	Model      string
	CapacityKg float64
}
