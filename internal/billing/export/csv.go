package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/parceldesk/parceldesk/internal/billing"
)

var invoiceHeader = []string{
	"Invoice", "Order", "Customer", "Method", "Status",
	"Subtotal", "Delivery Fee", "Tax", "Discount", "Total",
	"Paid", "Remaining", "Issued", "Due", "Paid Date",
}

// WriteInvoicesCSV serialises derived invoices to CSV.
func WriteInvoicesCSV(w io.Writer, invoices []billing.Invoice) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(invoiceHeader); err != nil {
		return err
	}
	for _, inv := range invoices {
		if err := writer.Write(invoiceRecord(inv)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func invoiceRecord(inv billing.Invoice) []string {
	return []string{
		inv.Number,
		strconv.FormatInt(inv.OrderID, 10),
		inv.CustomerName,
		string(inv.Method),
		string(inv.Status),
		formatMoney(inv.Subtotal),
		formatMoney(inv.DeliveryFee),
		formatMoney(inv.Tax),
		formatMoney(inv.Discount),
		formatMoney(inv.Total),
		formatMoney(inv.PaidAmount),
		formatMoney(inv.RemainingAmount),
		formatDate(inv.IssueDate),
		formatDate(inv.DueDate),
		formatDatePtr(inv.PaidDate),
	}
}

// WriteAgingCSV prints aging buckets to CSV.
func WriteAgingCSV(w io.Writer, report billing.AgingReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Bucket", "Amount"}); err != nil {
		return err
	}
	records := [][]string{
		{"Current", formatMoney(report.Current)},
		{"1-30 days", formatMoney(report.Days30)},
		{"31-60 days", formatMoney(report.Days60)},
		{"60+ days", formatMoney(report.Days90Plus)},
		{"Total", formatMoney(report.Total())},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
