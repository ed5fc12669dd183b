package billing

import "time"

// DaysPastDue returns whole days elapsed since the due date, negative when
// the invoice is not yet due.
func DaysPastDue(inv Invoice, now time.Time) int {
	return int(now.Sub(inv.DueDate).Hours() / 24)
}

// Aging buckets the remaining balance of every open invoice by days past
// due, evaluated at asOf.
func Aging(invoices []Invoice, asOf time.Time) AgingReport {
	report := AgingReport{AsOf: asOf}
	for _, inv := range invoices {
		if !inv.Open() {
			continue
		}
		days := DaysPastDue(inv, asOf)
		switch {
		case days <= 0:
			report.Current += inv.RemainingAmount
		case days <= 30:
			report.Days30 += inv.RemainingAmount
		case days <= 60:
			report.Days60 += inv.RemainingAmount
		default:
			report.Days90Plus += inv.RemainingAmount
		}
	}
	return report
}
