package billing

import (
	"time"

	"github.com/parceldesk/parceldesk/internal/orders"
)

// InvoiceStatus enumerates the derived billing state of an order.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusSent      InvoiceStatus = "sent"
	StatusPaid      InvoiceStatus = "paid"
	StatusPartial   InvoiceStatus = "partial"
	StatusOverdue   InvoiceStatus = "overdue"
	StatusCancelled InvoiceStatus = "cancelled"
)

// NetTermsDays is the fixed Net-30 payment policy applied to every invoice.
const NetTermsDays = 30

// Invoice is a derived entity: it is computed from an order and its recorded
// payments on every read and is never persisted. Status is therefore always
// a pure function of the order, the payments, and the evaluation clock.
type Invoice struct {
	OrderID         int64                `json:"order_id"`
	Number          string               `json:"number"`
	CustomerID      int64                `json:"customer_id"`
	CustomerName    string               `json:"customer_name"`
	Method          orders.PaymentMethod `json:"payment_method"`
	Subtotal        float64              `json:"subtotal"`
	DeliveryFee     float64              `json:"delivery_fee"`
	Tax             float64              `json:"tax"`
	Discount        float64              `json:"discount"`
	Total           float64              `json:"total"`
	PaidAmount      float64              `json:"paid_amount"`
	RemainingAmount float64              `json:"remaining_amount"`
	Status          InvoiceStatus        `json:"status"`
	IssueDate       time.Time            `json:"issue_date"`
	DueDate         time.Time            `json:"due_date"`
	PaidDate        *time.Time           `json:"paid_date,omitempty"`
}

// Open reports whether the invoice still carries a balance to collect.
func (i Invoice) Open() bool {
	switch i.Status {
	case StatusSent, StatusOverdue, StatusPartial:
		return true
	default:
		return false
	}
}

// Payment is money recorded (or derived) against an order's invoice.
// Synthetic payments are emitted for invoices that resolve to paid through
// the order itself (prepaid or COD settlement) with no ledger entry.
type Payment struct {
	ID        int64                `json:"id"`
	OrderID   int64                `json:"order_id"`
	Amount    float64              `json:"amount"`
	Method    orders.PaymentMethod `json:"method"`
	PaidAt    time.Time            `json:"paid_at"`
	Note      string               `json:"note,omitempty"`
	Synthetic bool                 `json:"synthetic,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// AgingReport buckets open balances by days past due. The four buckets are
// mutually exclusive and collectively exhaustive: their sum equals the total
// remaining amount over the invoices considered.
type AgingReport struct {
	AsOf       time.Time `json:"as_of"`
	Current    float64   `json:"current"`
	Days30     float64   `json:"days_30"`
	Days60     float64   `json:"days_60"`
	Days90Plus float64   `json:"days_90_plus"`
}

// Total returns the sum over all buckets.
func (r AgingReport) Total() float64 {
	return r.Current + r.Days30 + r.Days60 + r.Days90Plus
}

// MethodBreakdown is the share of collected money per payment method.
type MethodBreakdown struct {
	Method     orders.PaymentMethod `json:"method"`
	Amount     float64              `json:"amount"`
	Percentage float64              `json:"percentage"`
}

// MonthlyRevenue is one point of the trailing revenue trend.
type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Growth  float64 `json:"growth"`
}

// TopCustomer summarises collected revenue for one customer.
type TopCustomer struct {
	CustomerID   int64   `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	PaidAmount   float64 `json:"paid_amount"`
}

// FinancialSummary aggregates the derived invoices and payments.
type FinancialSummary struct {
	TotalInvoiced      float64           `json:"total_invoiced"`
	TotalPaid          float64           `json:"total_paid"`
	TotalOutstanding   float64           `json:"total_outstanding"`
	TotalOverdue       float64           `json:"total_overdue"`
	CollectionRate     float64           `json:"collection_rate"`
	AveragePaymentDays float64           `json:"average_payment_days"`
	Methods            []MethodBreakdown `json:"methods"`
	MonthlyTrend       []MonthlyRevenue  `json:"monthly_trend"`
	TopCustomers       []TopCustomer     `json:"top_customers"`
}

// RecordPaymentInput carries the fields accepted when registering a payment.
type RecordPaymentInput struct {
	OrderID int64
	Amount  float64
	Method  orders.PaymentMethod
	PaidAt  time.Time
	Note    string
}
