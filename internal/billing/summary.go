package billing

import (
	"sort"
	"time"

	"github.com/parceldesk/parceldesk/internal/orders"
)

const trendWindowMonths = 6

// Summarize aggregates derived invoices and their payments into the numbers
// surfaced on the accounting dashboard. Every ratio is zero-guarded: a zero
// denominator yields 0, never NaN or Inf.
func Summarize(invoices []Invoice, payments []Payment, now time.Time) FinancialSummary {
	summary := FinancialSummary{}

	var paymentDays float64
	var paidCount int
	for _, inv := range invoices {
		summary.TotalInvoiced += inv.Total
		switch inv.Status {
		case StatusSent, StatusPartial:
			summary.TotalOutstanding += inv.RemainingAmount
		case StatusOverdue:
			summary.TotalOverdue += inv.RemainingAmount
		}
		if inv.PaidDate != nil {
			days := inv.PaidDate.Sub(inv.IssueDate).Hours() / 24
			if days < 0 {
				days = -days
			}
			paymentDays += days
			paidCount++
		}
	}
	if paidCount > 0 {
		summary.AveragePaymentDays = paymentDays / float64(paidCount)
	}

	byMethod := make(map[orders.PaymentMethod]float64)
	for _, p := range payments {
		summary.TotalPaid += p.Amount
		byMethod[p.Method] += p.Amount
	}
	summary.CollectionRate = safeRatio(summary.TotalPaid, summary.TotalInvoiced) * 100

	methods := make([]MethodBreakdown, 0, len(byMethod))
	for method, amount := range byMethod {
		methods = append(methods, MethodBreakdown{
			Method:     method,
			Amount:     amount,
			Percentage: safeRatio(amount, summary.TotalPaid) * 100,
		})
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i].Amount > methods[j].Amount })
	summary.Methods = methods

	summary.MonthlyTrend = monthlyTrend(payments, now)
	summary.TopCustomers = topCustomers(invoices, 10)
	return summary
}

// monthlyTrend sums payments per calendar month over a fixed six month
// trailing window. Growth compares against the prior calendar month, so the
// first window point looks one month further back.
func monthlyTrend(payments []Payment, now time.Time) []MonthlyRevenue {
	revenue := make(map[string]float64)
	for _, p := range payments {
		revenue[p.PaidAt.UTC().Format("2006-01")] += p.Amount
	}

	anchor := time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	trend := make([]MonthlyRevenue, 0, trendWindowMonths)
	for i := trendWindowMonths - 1; i >= 0; i-- {
		month := anchor.AddDate(0, -i, 0)
		key := month.Format("2006-01")
		prevKey := month.AddDate(0, -1, 0).Format("2006-01")
		point := MonthlyRevenue{Month: key, Revenue: revenue[key]}
		if prev := revenue[prevKey]; prev > 0 {
			point.Growth = (point.Revenue - prev) / prev * 100
		}
		trend = append(trend, point)
	}
	return trend
}

func topCustomers(invoices []Invoice, limit int) []TopCustomer {
	type entry struct {
		name string
		paid float64
	}
	byCustomer := make(map[int64]*entry)
	for _, inv := range invoices {
		e, ok := byCustomer[inv.CustomerID]
		if !ok {
			e = &entry{name: inv.CustomerName}
			byCustomer[inv.CustomerID] = e
		}
		e.paid += inv.PaidAmount
	}
	out := make([]TopCustomer, 0, len(byCustomer))
	for id, e := range byCustomer {
		out = append(out, TopCustomer{CustomerID: id, CustomerName: e.name, PaidAmount: e.paid})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PaidAmount != out[j].PaidAmount {
			return out[i].PaidAmount > out[j].PaidAmount
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func safeRatio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
