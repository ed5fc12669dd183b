package billing

import (
	"time"

	"github.com/parceldesk/parceldesk/internal/orders"
)

// DeriveInvoice computes the invoice projected from one order, evaluated at
// now. Recorded payments for the order widen the credit path: a credit
// invoice whose payments cover the total resolves to paid, a partial cover
// resolves to partial. Prepaid and COD orders settle through the order
// itself, independent of the ledger.
func DeriveInvoice(order orders.Order, recorded []Payment, now time.Time) Invoice {
	issue := order.CreatedAt
	inv := Invoice{
		OrderID:      order.ID,
		Number:       "INV-" + order.Number,
		CustomerID:   order.CustomerID,
		CustomerName: order.CustomerName,
		Method:       order.PaymentMethod,
		Subtotal:     order.TotalAmount - order.DeliveryFee - order.Tax + order.Discount,
		DeliveryFee:  order.DeliveryFee,
		Tax:          order.Tax,
		Discount:     order.Discount,
		Total:        order.TotalAmount,
		IssueDate:    issue,
		DueDate:      issue.AddDate(0, 0, NetTermsDays),
	}

	switch {
	case order.Status == orders.StatusCancelled:
		// Terminal regardless of clock or payments.
		inv.Status = StatusCancelled
		return inv
	case order.Status == orders.StatusDelivered && order.PaymentMethod == orders.MethodPrepaid:
		inv.Status = StatusPaid
		inv.PaidAmount = inv.Total
		paidAt := order.CreatedAt
		inv.PaidDate = &paidAt
	case order.Status == orders.StatusDelivered && order.PaymentMethod == orders.MethodCOD:
		inv.Status = StatusPaid
		inv.PaidAmount = inv.Total
		paidAt := order.UpdatedAt
		inv.PaidDate = &paidAt
	default:
		inv.Status = StatusSent
	}

	if inv.Status == StatusSent {
		applyRecorded(&inv, recorded)
	}
	if inv.Status == StatusSent && now.After(inv.DueDate) {
		inv.Status = StatusOverdue
	}

	inv.RemainingAmount = inv.Total - inv.PaidAmount
	if inv.RemainingAmount < 0 {
		inv.RemainingAmount = 0
	}
	return inv
}

func applyRecorded(inv *Invoice, recorded []Payment) {
	var paid float64
	var latest time.Time
	for _, p := range recorded {
		if p.OrderID != inv.OrderID || p.Synthetic {
			continue
		}
		paid += p.Amount
		if p.PaidAt.After(latest) {
			latest = p.PaidAt
		}
	}
	if paid <= 0 {
		return
	}
	inv.PaidAmount = paid
	if paid >= inv.Total {
		inv.Status = StatusPaid
		paidAt := latest
		inv.PaidDate = &paidAt
		return
	}
	inv.Status = StatusPartial
}

// DeriveInvoices projects invoices for every order, sharing one evaluation
// clock so a batch is internally consistent.
func DeriveInvoices(list []orders.Order, recorded []Payment, now time.Time) []Invoice {
	byOrder := make(map[int64][]Payment, len(recorded))
	for _, p := range recorded {
		byOrder[p.OrderID] = append(byOrder[p.OrderID], p)
	}
	invoices := make([]Invoice, 0, len(list))
	for _, order := range list {
		invoices = append(invoices, DeriveInvoice(order, byOrder[order.ID], now))
	}
	return invoices
}

// MergePayments returns the recorded payments plus one synthetic payment per
// invoice that settled through the order itself (paid with an empty ledger).
// The synthetic amount equals the invoice total.
func MergePayments(invoices []Invoice, recorded []Payment) []Payment {
	covered := make(map[int64]bool, len(recorded))
	for _, p := range recorded {
		if !p.Synthetic {
			covered[p.OrderID] = true
		}
	}
	merged := make([]Payment, len(recorded))
	copy(merged, recorded)
	for _, inv := range invoices {
		if inv.Status != StatusPaid || covered[inv.OrderID] || inv.PaidDate == nil {
			continue
		}
		merged = append(merged, Payment{
			OrderID:   inv.OrderID,
			Amount:    inv.Total,
			Method:    inv.Method,
			PaidAt:    *inv.PaidDate,
			Synthetic: true,
		})
	}
	return merged
}
