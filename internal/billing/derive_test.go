package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceldesk/parceldesk/internal/orders"
)

func fixtureOrder(status orders.OrderStatus, method orders.PaymentMethod) orders.Order {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return orders.Order{
		ID:            7,
		Number:        "PD-20240101-AB12CD34",
		CustomerID:    42,
		CustomerName:  "Thiri Logistics",
		Status:        status,
		PaymentMethod: method,
		TotalAmount:   300,
		DeliveryFee:   20,
		Tax:           24,
		Discount:      0,
		CreatedAt:     created,
		UpdatedAt:     created.AddDate(0, 0, 3),
	}
}

func TestDeriveInvoiceDeliveredPrepaid(t *testing.T) {
	order := fixtureOrder(orders.StatusDelivered, orders.MethodPrepaid)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	inv := DeriveInvoice(order, nil, now)

	assert.Equal(t, StatusPaid, inv.Status)
	assert.Equal(t, 256.0, inv.Subtotal)
	assert.Equal(t, 300.0, inv.PaidAmount)
	assert.Equal(t, 0.0, inv.RemainingAmount)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), inv.DueDate)
	require.NotNil(t, inv.PaidDate)
	assert.Equal(t, order.CreatedAt, *inv.PaidDate)
	assert.Equal(t, "INV-PD-20240101-AB12CD34", inv.Number)
}

func TestDeriveInvoiceDeliveredCODPaidAtDeliveryTime(t *testing.T) {
	order := fixtureOrder(orders.StatusDelivered, orders.MethodCOD)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	inv := DeriveInvoice(order, nil, now)

	assert.Equal(t, StatusPaid, inv.Status)
	require.NotNil(t, inv.PaidDate)
	assert.Equal(t, order.UpdatedAt, *inv.PaidDate)
}

func TestDeriveInvoiceCreditOverdue(t *testing.T) {
	order := fixtureOrder(orders.StatusDelivered, orders.MethodCredit)
	now := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	inv := DeriveInvoice(order, nil, now)

	assert.Equal(t, StatusOverdue, inv.Status)
	assert.Equal(t, 300.0, inv.RemainingAmount)
	assert.Nil(t, inv.PaidDate)
}

func TestDeriveInvoiceCancelledIsTerminal(t *testing.T) {
	order := fixtureOrder(orders.StatusCancelled, orders.MethodCredit)

	clocks := []time.Time{
		order.CreatedAt,
		order.CreatedAt.AddDate(0, 0, 15),
		order.CreatedAt.AddDate(0, 6, 0),
		order.CreatedAt.AddDate(5, 0, 0),
	}
	for _, now := range clocks {
		inv := DeriveInvoice(order, nil, now)
		assert.Equal(t, StatusCancelled, inv.Status, "clock %s", now)
	}

	// Even recorded payments do not reopen a cancelled invoice.
	paid := []Payment{{OrderID: order.ID, Amount: 300, Method: orders.MethodCredit, PaidAt: order.CreatedAt}}
	inv := DeriveInvoice(order, paid, order.CreatedAt.AddDate(1, 0, 0))
	assert.Equal(t, StatusCancelled, inv.Status)
	assert.Equal(t, 0.0, inv.PaidAmount)
}

func TestDeriveInvoiceOverdueDependsOnClock(t *testing.T) {
	order := fixtureOrder(orders.StatusShipped, orders.MethodCredit)

	before := DeriveInvoice(order, nil, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, StatusSent, before.Status)

	after := DeriveInvoice(order, nil, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, StatusOverdue, after.Status)
}

func TestDeriveInvoicePartialPayments(t *testing.T) {
	order := fixtureOrder(orders.StatusShipped, orders.MethodCredit)
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	partial := []Payment{{OrderID: order.ID, Amount: 120, Method: orders.MethodCredit, PaidAt: now}}
	inv := DeriveInvoice(order, partial, now)
	assert.Equal(t, StatusPartial, inv.Status)
	assert.Equal(t, 120.0, inv.PaidAmount)
	assert.Equal(t, 180.0, inv.RemainingAmount)
	assert.Nil(t, inv.PaidDate)

	second := time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)
	full := append(partial, Payment{OrderID: order.ID, Amount: 180, Method: orders.MethodCredit, PaidAt: second})
	inv = DeriveInvoice(order, full, second)
	assert.Equal(t, StatusPaid, inv.Status)
	assert.Equal(t, 0.0, inv.RemainingAmount)
	require.NotNil(t, inv.PaidDate)
	assert.Equal(t, second, *inv.PaidDate)
}

func TestDeriveInvoicePartialDoesNotEscalateOverdue(t *testing.T) {
	order := fixtureOrder(orders.StatusShipped, orders.MethodCredit)
	late := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	partial := []Payment{{OrderID: order.ID, Amount: 50, Method: orders.MethodCredit, PaidAt: late}}
	inv := DeriveInvoice(order, partial, late)
	assert.Equal(t, StatusPartial, inv.Status)
}

func TestDeriveInvoiceIgnoresSyntheticPayments(t *testing.T) {
	order := fixtureOrder(orders.StatusShipped, orders.MethodCredit)
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	synthetic := []Payment{{OrderID: order.ID, Amount: 300, Method: orders.MethodCredit, PaidAt: now, Synthetic: true}}
	inv := DeriveInvoice(order, synthetic, now)
	assert.Equal(t, StatusSent, inv.Status)
	assert.Equal(t, 0.0, inv.PaidAmount)
}

func TestMergePaymentsSynthesisesSettledOrders(t *testing.T) {
	prepaid := fixtureOrder(orders.StatusDelivered, orders.MethodPrepaid)
	credit := fixtureOrder(orders.StatusShipped, orders.MethodCredit)
	credit.ID = 8
	credit.Number = "PD-20240101-EF56GH78"

	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	recorded := []Payment{{ID: 1, OrderID: credit.ID, Amount: 100, Method: orders.MethodCredit, PaidAt: now}}
	invoices := DeriveInvoices([]orders.Order{prepaid, credit}, recorded, now)
	require.Len(t, invoices, 2)

	merged := MergePayments(invoices, recorded)
	require.Len(t, merged, 2)
	assert.False(t, merged[0].Synthetic)
	assert.True(t, merged[1].Synthetic)
	assert.Equal(t, prepaid.ID, merged[1].OrderID)
	assert.Equal(t, 300.0, merged[1].Amount)
}
