package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/parceldesk/parceldesk/internal/orders"
)

var (
	// ErrOrderNotFound indicates the referenced order does not exist.
	ErrOrderNotFound = errors.New("billing: order not found")
	// ErrNotPayable indicates the derived invoice accepts no payments.
	ErrNotPayable = errors.New("billing: invoice not payable")
	// ErrExceedsBalance indicates the payment is larger than the open balance.
	ErrExceedsBalance = errors.New("billing: amount exceeds remaining balance")
)

// OrdersPort is the read-only view of the order store the derivation
// pipeline consumes. Orders are never mutated from here.
type OrdersPort interface {
	ListOrders(ctx context.Context, filter orders.ListFilter) ([]orders.Order, error)
	GetOrder(ctx context.Context, id int64) (*orders.Order, error)
}

// PaymentsPort persists recorded payments, the only billing state that is
// stored rather than derived. CreatePayment owns the overpayment invariant:
// it must atomically reject an amount exceeding the order's open balance
// (wrapping ErrExceedsBalance). The service re-checks before calling, but
// that pre-check can race between two recordings; the port's check cannot.
type PaymentsPort interface {
	CreatePayment(ctx context.Context, payment Payment) (*Payment, error)
	ListPayments(ctx context.Context) ([]Payment, error)
	ListPaymentsByOrder(ctx context.Context, orderID int64) ([]Payment, error)
}

// Service recomputes invoices, aging and summary figures from source
// records on every read.
type Service struct {
	orders   OrdersPort
	payments PaymentsPort
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(ordersPort OrdersPort, paymentsPort PaymentsPort) *Service {
	return &Service{orders: ordersPort, payments: paymentsPort, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Invoices derives the invoice projection for every order.
func (s *Service) Invoices(ctx context.Context) ([]Invoice, error) {
	list, err := s.orders.ListOrders(ctx, orders.ListFilter{Limit: 500})
	if err != nil {
		return nil, err
	}
	recorded, err := s.payments.ListPayments(ctx)
	if err != nil {
		return nil, err
	}
	return DeriveInvoices(list, recorded, s.now()), nil
}

// Invoice derives the invoice for a single order.
func (s *Service) Invoice(ctx context.Context, orderID int64) (*Invoice, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	recorded, err := s.payments.ListPaymentsByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	inv := DeriveInvoice(*order, recorded, s.now())
	return &inv, nil
}

// RecordPayment registers money received against an order's invoice and
// returns the payment together with the freshly derived invoice. Paying more
// than the open balance is rejected; covering part of it leaves the invoice
// partial, never paid.
func (s *Service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*Payment, *Invoice, error) {
	if input.Amount <= 0 {
		return nil, nil, fmt.Errorf("%w: amount must be positive", ErrNotPayable)
	}
	if !input.Method.IsValid() {
		return nil, nil, fmt.Errorf("billing: unknown payment method %q", input.Method)
	}

	order, err := s.orders.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, ErrOrderNotFound
	}

	recorded, err := s.payments.ListPaymentsByOrder(ctx, input.OrderID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	inv := DeriveInvoice(*order, recorded, now)
	if !inv.Open() {
		return nil, nil, fmt.Errorf("%w: invoice %s is %s", ErrNotPayable, inv.Number, inv.Status)
	}
	if input.Amount > inv.RemainingAmount {
		return nil, nil, fmt.Errorf("%w: %.2f > %.2f", ErrExceedsBalance, input.Amount, inv.RemainingAmount)
	}

	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	payment, err := s.payments.CreatePayment(ctx, Payment{
		OrderID:   input.OrderID,
		Amount:    input.Amount,
		Method:    input.Method,
		PaidAt:    paidAt,
		Note:      input.Note,
		CreatedAt: now,
	})
	if err != nil {
		return nil, nil, err
	}

	updated := DeriveInvoice(*order, append(recorded, *payment), now)
	return payment, &updated, nil
}

// OrderPayments lists the recorded payments for one order, oldest first.
func (s *Service) OrderPayments(ctx context.Context, orderID int64) ([]Payment, error) {
	return s.payments.ListPaymentsByOrder(ctx, orderID)
}

// Payments lists recorded and synthetic payments over the full book.
func (s *Service) Payments(ctx context.Context) ([]Payment, error) {
	invoices, err := s.Invoices(ctx)
	if err != nil {
		return nil, err
	}
	recorded, err := s.payments.ListPayments(ctx)
	if err != nil {
		return nil, err
	}
	return MergePayments(invoices, recorded), nil
}

// AgingReport buckets open balances by days past due.
func (s *Service) AgingReport(ctx context.Context) (AgingReport, error) {
	invoices, err := s.Invoices(ctx)
	if err != nil {
		return AgingReport{}, err
	}
	return Aging(invoices, s.now()), nil
}

// Summary aggregates the full invoice and payment book.
func (s *Service) Summary(ctx context.Context) (FinancialSummary, error) {
	invoices, err := s.Invoices(ctx)
	if err != nil {
		return FinancialSummary{}, err
	}
	recorded, err := s.payments.ListPayments(ctx)
	if err != nil {
		return FinancialSummary{}, err
	}
	return Summarize(invoices, MergePayments(invoices, recorded), s.now()), nil
}
