package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryOrderRepo struct {
	orders map[int64]*Order
	nextID int64
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{orders: make(map[int64]*Order)}
}

func (r *memoryOrderRepo) CreateOrder(ctx context.Context, order Order) (*Order, error) {
	r.nextID++
	order.ID = r.nextID
	r.orders[order.ID] = &order
	return &order, nil
}

func (r *memoryOrderRepo) GetOrder(ctx context.Context, id int64) (*Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (r *memoryOrderRepo) ListOrders(ctx context.Context, filter ListFilter) ([]Order, error) {
	var out []Order
	for _, order := range r.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.CustomerID != 0 && order.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, *order)
	}
	return out, nil
}

func (r *memoryOrderRepo) UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus, updatedAt time.Time) error {
	order, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	return nil
}

func (r *memoryOrderRepo) AssignOrder(ctx context.Context, id int64, userID int64, updatedAt time.Time) error {
	order, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.AssignedTo = &userID
	order.UpdatedAt = updatedAt
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryOrderRepo) {
	t.Helper()
	repo := newMemoryOrderRepo()
	svc := NewService(repo)
	svc.WithNow(func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) })
	return svc, repo
}

func TestCreateOrderValidates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateOrderInput{CustomerName: "Acme", PaymentMethod: MethodCOD, TotalAmount: 100})
	require.Error(t, err, "missing customer ID must fail")

	_, err = svc.CreateOrder(ctx, CreateOrderInput{CustomerID: 1, PaymentMethod: "cheque", TotalAmount: 100})
	require.Error(t, err, "unknown payment method must fail")

	_, err = svc.CreateOrder(ctx, CreateOrderInput{CustomerID: 1, PaymentMethod: MethodCOD, TotalAmount: 0})
	require.Error(t, err, "zero total must fail")
}

func TestCreateOrderDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:    7,
		CustomerName:  " Acme Logistics ",
		PaymentMethod: MethodPrepaid,
		TotalAmount:   300,
		DeliveryFee:   20,
		Tax:           24,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, "Acme Logistics", order.CustomerName)
	require.Contains(t, order.Number, "PD-20240310-")
}

func TestStatusTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	order, err := svc.CreateOrder(ctx, CreateOrderInput{CustomerID: 1, PaymentMethod: MethodCOD, TotalAmount: 50})
	require.NoError(t, err)

	// pending cannot jump straight to delivered
	_, err = svc.UpdateStatus(ctx, order.ID, StatusDelivered)
	require.ErrorIs(t, err, ErrInvalidTransition)

	for _, next := range []OrderStatus{StatusProcessing, StatusShipped, StatusDelivered} {
		order, err = svc.UpdateStatus(ctx, order.ID, next)
		require.NoError(t, err)
		require.Equal(t, next, order.Status)
	}

	// delivered may still be returned, but nothing else
	_, err = svc.UpdateStatus(ctx, order.ID, StatusCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition)
	order, err = svc.UpdateStatus(ctx, order.ID, StatusReturned)
	require.NoError(t, err)
	require.Equal(t, StatusReturned, order.Status)

	// returned is terminal
	_, err = svc.UpdateStatus(ctx, order.ID, StatusPending)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelFromPendingAndProcessing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, CreateOrderInput{CustomerID: 1, PaymentMethod: MethodCredit, TotalAmount: 75})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, first.ID, StatusCancelled)
	require.NoError(t, err)

	second, err := svc.CreateOrder(ctx, CreateOrderInput{CustomerID: 1, PaymentMethod: MethodCredit, TotalAmount: 75})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, second.ID, StatusProcessing)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, second.ID, StatusCancelled)
	require.NoError(t, err)
}

func TestAssignRejectsFinishedOrders(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	order, err := svc.CreateOrder(ctx, CreateOrderInput{CustomerID: 2, PaymentMethod: MethodCOD, TotalAmount: 40})
	require.NoError(t, err)

	require.NoError(t, svc.Assign(ctx, order.ID, 9))
	require.NotNil(t, repo.orders[order.ID].AssignedTo)

	repo.orders[order.ID].Status = StatusDelivered
	require.ErrorIs(t, svc.Assign(ctx, order.ID, 9), ErrInvalidTransition)
}

func TestGetOrderNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetOrder(context.Background(), 404)
	require.ErrorIs(t, err, ErrNotFound)
}
