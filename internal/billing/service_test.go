package billing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceldesk/parceldesk/internal/orders"
)

type memoryOrdersPort struct {
	orders map[int64]orders.Order
}

func (m *memoryOrdersPort) ListOrders(_ context.Context, _ orders.ListFilter) ([]orders.Order, error) {
	out := make([]orders.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *memoryOrdersPort) GetOrder(_ context.Context, id int64) (*orders.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

type memoryPaymentsPort struct {
	nextID   int64
	payments []Payment
}

func (m *memoryPaymentsPort) CreatePayment(_ context.Context, payment Payment) (*Payment, error) {
	m.nextID++
	payment.ID = m.nextID
	m.payments = append(m.payments, payment)
	return &payment, nil
}

func (m *memoryPaymentsPort) ListPayments(_ context.Context) ([]Payment, error) {
	return append([]Payment(nil), m.payments...), nil
}

func (m *memoryPaymentsPort) ListPaymentsByOrder(_ context.Context, orderID int64) ([]Payment, error) {
	var out []Payment
	for _, p := range m.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func newBillingFixture(t *testing.T, list ...orders.Order) (*Service, *memoryPaymentsPort) {
	t.Helper()
	ordersPort := &memoryOrdersPort{orders: make(map[int64]orders.Order)}
	for _, o := range list {
		ordersPort.orders[o.ID] = o
	}
	paymentsPort := &memoryPaymentsPort{}
	svc := NewService(ordersPort, paymentsPort)
	svc.WithNow(func() time.Time { return time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC) })
	return svc, paymentsPort
}

func TestServiceRecordPaymentProgression(t *testing.T) {
	order := fixtureOrder(orders.StatusShipped, orders.MethodCredit)
	svc, _ := newBillingFixture(t, order)
	ctx := context.Background()

	payment, inv, err := svc.RecordPayment(ctx, RecordPaymentInput{
		OrderID: order.ID,
		Amount:  120,
		Method:  orders.MethodCredit,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), payment.ID)
	assert.Equal(t, StatusPartial, inv.Status)
	assert.Equal(t, 180.0, inv.RemainingAmount)

	_, inv, err = svc.RecordPayment(ctx, RecordPaymentInput{
		OrderID: order.ID,
		Amount:  180,
		Method:  orders.MethodCredit,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, inv.Status)
	assert.Equal(t, 0.0, inv.RemainingAmount)

	// Fully settled invoices accept no further payments.
	_, _, err = svc.RecordPayment(ctx, RecordPaymentInput{
		OrderID: order.ID,
		Amount:  1,
		Method:  orders.MethodCredit,
	})
	assert.ErrorIs(t, err, ErrNotPayable)
}

func TestServiceRecordPaymentRejectsOverpayment(t *testing.T) {
	order := fixtureOrder(orders.StatusShipped, orders.MethodCredit)
	svc, store := newBillingFixture(t, order)

	_, _, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		OrderID: order.ID,
		Amount:  301,
		Method:  orders.MethodCredit,
	})
	assert.ErrorIs(t, err, ErrExceedsBalance)
	assert.Empty(t, store.payments)
}

// guardedPaymentsPort enforces the CreatePayment balance invariant the way
// the SQL repository does: atomically, against the order total, under a lock.
// The barrier holds every insert until all recordings have passed the
// service's advisory pre-check.
type guardedPaymentsPort struct {
	mu       sync.Mutex
	totals   map[int64]float64
	payments []Payment
	nextID   int64
	barrier  *sync.WaitGroup
}

func (g *guardedPaymentsPort) CreatePayment(_ context.Context, payment Payment) (*Payment, error) {
	if g.barrier != nil {
		g.barrier.Done()
		g.barrier.Wait()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var paid float64
	for _, p := range g.payments {
		if p.OrderID == payment.OrderID {
			paid += p.Amount
		}
	}
	if remaining := g.totals[payment.OrderID] - paid; payment.Amount > remaining {
		return nil, fmt.Errorf("%w: %.2f > %.2f", ErrExceedsBalance, payment.Amount, remaining)
	}
	g.nextID++
	payment.ID = g.nextID
	g.payments = append(g.payments, payment)
	return &payment, nil
}

func (g *guardedPaymentsPort) ListPayments(_ context.Context) ([]Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Payment(nil), g.payments...), nil
}

func (g *guardedPaymentsPort) ListPaymentsByOrder(_ context.Context, orderID int64) ([]Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Payment
	for _, p := range g.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestServiceRecordPaymentConcurrentCannotOvershoot(t *testing.T) {
	order := fixtureOrder(orders.StatusShipped, orders.MethodCredit)
	ordersPort := &memoryOrdersPort{orders: map[int64]orders.Order{order.ID: order}}

	var barrier sync.WaitGroup
	barrier.Add(2)
	store := &guardedPaymentsPort{
		totals:  map[int64]float64{order.ID: order.TotalAmount},
		barrier: &barrier,
	}
	svc := NewService(ordersPort, store)
	svc.WithNow(func() time.Time { return time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC) })

	// Both recordings read an empty ledger, so both pass the pre-check and
	// meet at the insert. Only one may land.
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, _, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
				OrderID: order.ID,
				Amount:  order.TotalAmount,
				Method:  orders.MethodCredit,
			})
			errs <- err
		}()
	}

	var rejected, landed int
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			assert.ErrorIs(t, err, ErrExceedsBalance)
			rejected++
		} else {
			landed++
		}
	}
	assert.Equal(t, 1, landed)
	assert.Equal(t, 1, rejected)

	var total float64
	for _, p := range store.payments {
		total += p.Amount
	}
	assert.Equal(t, order.TotalAmount, total)
}

func TestServiceRecordPaymentUnknownOrder(t *testing.T) {
	svc, _ := newBillingFixture(t)

	_, _, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		OrderID: 999,
		Amount:  10,
		Method:  orders.MethodCOD,
	})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestServiceRecordPaymentRejectsCancelled(t *testing.T) {
	order := fixtureOrder(orders.StatusCancelled, orders.MethodCredit)
	svc, _ := newBillingFixture(t, order)

	_, _, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		OrderID: order.ID,
		Amount:  10,
		Method:  orders.MethodCredit,
	})
	assert.ErrorIs(t, err, ErrNotPayable)
}

func TestServiceRecordPaymentValidation(t *testing.T) {
	order := fixtureOrder(orders.StatusShipped, orders.MethodCredit)
	svc, _ := newBillingFixture(t, order)
	ctx := context.Background()

	_, _, err := svc.RecordPayment(ctx, RecordPaymentInput{OrderID: order.ID, Amount: 0, Method: orders.MethodCOD})
	assert.ErrorIs(t, err, ErrNotPayable)

	_, _, err = svc.RecordPayment(ctx, RecordPaymentInput{OrderID: order.ID, Amount: 10, Method: "wire"})
	assert.Error(t, err)
}

func TestServiceInvoiceUnknownOrder(t *testing.T) {
	svc, _ := newBillingFixture(t)

	_, err := svc.Invoice(context.Background(), 404)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestServicePaymentsIncludeSynthetic(t *testing.T) {
	prepaid := fixtureOrder(orders.StatusDelivered, orders.MethodPrepaid)
	svc, _ := newBillingFixture(t, prepaid)

	payments, err := svc.Payments(context.Background())
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Synthetic)
	assert.Equal(t, 300.0, payments[0].Amount)
}

func TestServiceSummaryAndAging(t *testing.T) {
	shipped := fixtureOrder(orders.StatusShipped, orders.MethodCredit)
	prepaid := fixtureOrder(orders.StatusDelivered, orders.MethodPrepaid)
	prepaid.ID = 8
	prepaid.Number = "PD-20240101-EF56GH78"
	svc, _ := newBillingFixture(t, shipped, prepaid)
	svc.WithNow(func() time.Time { return time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC) })

	report, err := svc.AgingReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 300.0, report.Days30)
	assert.Equal(t, 300.0, report.Total())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 600.0, summary.TotalInvoiced)
	assert.Equal(t, 300.0, summary.TotalPaid)
	assert.Equal(t, 300.0, summary.TotalOverdue)
	assert.Equal(t, 50.0, summary.CollectionRate)
}
