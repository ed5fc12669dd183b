package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/parceldesk/parceldesk/internal/billing"
)

const invoiceSheet = "Invoices"

// WriteInvoicesXLSX renders derived invoices as a spreadsheet.
func WriteInvoicesXLSX(w io.Writer, invoices []billing.Invoice) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(invoiceSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	for col, title := range invoiceHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(invoiceSheet, cell, title); err != nil {
			return err
		}
	}

	for i, inv := range invoices {
		row := i + 2
		values := []interface{}{
			inv.Number,
			inv.OrderID,
			inv.CustomerName,
			string(inv.Method),
			string(inv.Status),
			inv.Subtotal,
			inv.DeliveryFee,
			inv.Tax,
			inv.Discount,
			inv.Total,
			inv.PaidAmount,
			inv.RemainingAmount,
			formatDate(inv.IssueDate),
			formatDate(inv.DueDate),
			formatDatePtr(inv.PaidDate),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(invoiceSheet, cell, value); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	return f.Write(w)
}
