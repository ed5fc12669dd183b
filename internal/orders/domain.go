package orders

import "time"

// OrderStatus represents the delivery lifecycle of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusReturned   OrderStatus = "returned"
)

// IsValid checks if the status is part of the enumeration.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusReturned:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusReturned
}

// CanTransition reports whether the status may move to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusShipped || next == StatusCancelled
	case StatusShipped:
		return next == StatusDelivered || next == StatusReturned
	case StatusDelivered:
		return next == StatusReturned
	default:
		return false
	}
}

// PaymentMethod enumerates how an order is settled.
type PaymentMethod string

const (
	MethodCOD     PaymentMethod = "cod"
	MethodPrepaid PaymentMethod = "prepaid"
	MethodCredit  PaymentMethod = "credit"
)

// IsValid checks if the payment method is known.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCOD, MethodPrepaid, MethodCredit:
		return true
	default:
		return false
	}
}

// LineItem is one parcel line on an order.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	WeightKg    float64 `json:"weight_kg"`
	UnitPrice   float64 `json:"unit_price"`
}

// Order is the source-of-truth record for a parcel delivery. Monetary
// derivations never mutate it.
type Order struct {
	ID            int64         `json:"id"`
	Number        string        `json:"number"`
	CustomerID    int64         `json:"customer_id"`
	CustomerName  string        `json:"customer_name"`
	Status        OrderStatus   `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	TotalAmount   float64       `json:"total_amount"`
	DeliveryFee   float64       `json:"delivery_fee"`
	Tax           float64       `json:"tax"`
	Discount      float64       `json:"discount"`
	Items         []LineItem    `json:"items,omitempty"`
	PickupAddress string        `json:"pickup_address,omitempty"`
	DropAddress   string        `json:"drop_address,omitempty"`
	AssignedTo    *int64        `json:"assigned_to,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CreateOrderInput carries the fields accepted at order intake.
type CreateOrderInput struct {
	CustomerID    int64
	CustomerName  string
	PaymentMethod PaymentMethod
	TotalAmount   float64
	DeliveryFee   float64
	Tax           float64
	Discount      float64
	Items         []LineItem
	PickupAddress string
	DropAddress   string
}

// ListFilter narrows order listings.
type ListFilter struct {
	Status     OrderStatus
	CustomerID int64
	Method     PaymentMethod
	Limit      int
}
