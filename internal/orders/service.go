package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates the order does not exist.
var ErrNotFound = errors.New("orders: not found")

// ErrInvalidTransition indicates a status move the lifecycle forbids.
var ErrInvalidTransition = errors.New("orders: invalid status transition")

// RepositoryPort defines data access methods for orders.
type RepositoryPort interface {
	CreateOrder(ctx context.Context, order Order) (*Order, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus, updatedAt time.Time) error
	AssignOrder(ctx context.Context, id int64, userID int64, updatedAt time.Time) error
}

// Service handles order intake business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// CreateOrder registers a new order in pending status.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if input.CustomerID == 0 {
		return nil, errors.New("orders: customer ID required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, fmt.Errorf("orders: unknown payment method %q", input.PaymentMethod)
	}
	if input.TotalAmount <= 0 {
		return nil, errors.New("orders: total amount must be positive")
	}
	if input.DeliveryFee < 0 || input.Tax < 0 || input.Discount < 0 {
		return nil, errors.New("orders: monetary fields must not be negative")
	}
	now := s.now()
	order := Order{
		Number:        generateOrderNumber(now),
		CustomerID:    input.CustomerID,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		Status:        StatusPending,
		PaymentMethod: input.PaymentMethod,
		TotalAmount:   input.TotalAmount,
		DeliveryFee:   input.DeliveryFee,
		Tax:           input.Tax,
		Discount:      input.Discount,
		Items:         input.Items,
		PickupAddress: strings.TrimSpace(input.PickupAddress),
		DropAddress:   strings.TrimSpace(input.DropAddress),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return s.repo.CreateOrder(ctx, order)
}

// GetOrder fetches an order by ID.
func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}

// ListOrders returns orders matching the filter.
func (s *Service) ListOrders(ctx context.Context, filter ListFilter) ([]Order, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.ListOrders(ctx, filter)
}

// UpdateStatus moves an order through its lifecycle, enforcing transitions.
func (s *Service) UpdateStatus(ctx context.Context, id int64, next OrderStatus) (*Order, error) {
	if !next.IsValid() {
		return nil, fmt.Errorf("orders: unknown status %q", next)
	}
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
	}
	now := s.now()
	if err := s.repo.UpdateOrderStatus(ctx, id, next, now); err != nil {
		return nil, err
	}
	order.Status = next
	order.UpdatedAt = now
	return order, nil
}

// Assign hands the order to a delivery agent.
func (s *Service) Assign(ctx context.Context, id int64, userID int64) error {
	if userID == 0 {
		return errors.New("orders: assignee required")
	}
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.Status.IsTerminal() || order.Status == StatusDelivered {
		return fmt.Errorf("%w: order %s is %s", ErrInvalidTransition, order.Number, order.Status)
	}
	return s.repo.AssignOrder(ctx, id, userID, s.now())
}

func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
	return fmt.Sprintf("PD-%s-%s", now.UTC().Format("20060102"), suffix)
}
