package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/parceldesk/parceldesk/internal/billing"
)

// PDFExporter renders invoice documents through a Gotenberg service.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

func NewPDFExporter(endpoint string) *PDFExporter {
	return &PDFExporter{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Ping checks if the remote Gotenberg service is available.
func (p *PDFExporter) Ping(ctx context.Context) error {
	endpoint := strings.TrimRight(p.Endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/health", nil)
	if err != nil {
		return err
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderInvoice sends the invoice HTML to Gotenberg and returns PDF bytes.
func (p *PDFExporter) RenderInvoice(ctx context.Context, inv billing.Invoice, payments []billing.Payment) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	html := buildInvoiceHTML(inv, payments)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "invoice.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func buildInvoiceHTML(inv billing.Invoice, payments []billing.Payment) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}.label{text-align:left;}.status{text-transform:uppercase;font-weight:bold;}")
	b.WriteString("</style></head><body>")
	b.WriteString(fmt.Sprintf("<h1>Invoice %s</h1>", htmlEscape(inv.Number)))
	b.WriteString(fmt.Sprintf("<p>Customer: %s<br>Status: <span class=\"status\">%s</span><br>Issued: %s &nbsp; Due: %s</p>",
		htmlEscape(inv.CustomerName), htmlEscape(string(inv.Status)), formatDate(inv.IssueDate), formatDate(inv.DueDate)))

	b.WriteString("<table><tbody>")
	writeAmountRow(&b, "Subtotal", inv.Subtotal)
	writeAmountRow(&b, "Delivery Fee", inv.DeliveryFee)
	writeAmountRow(&b, "Tax", inv.Tax)
	writeAmountRow(&b, "Discount", -inv.Discount)
	writeAmountRow(&b, "Total", inv.Total)
	writeAmountRow(&b, "Paid", inv.PaidAmount)
	writeAmountRow(&b, "Remaining", inv.RemainingAmount)
	b.WriteString("</tbody></table>")

	if len(payments) > 0 {
		b.WriteString("<h2>Payments</h2><table><thead><tr><th>Date</th><th>Method</th><th>Amount</th></tr></thead><tbody>")
		for _, p := range payments {
			b.WriteString("<tr><td class=\"label\">")
			b.WriteString(formatDate(p.PaidAt))
			b.WriteString("</td><td class=\"label\">")
			b.WriteString(htmlEscape(string(p.Method)))
			b.WriteString("</td><td>")
			b.WriteString(formatMoney(p.Amount))
			b.WriteString("</td></tr>")
		}
		b.WriteString("</tbody></table>")
	}

	b.WriteString("</body></html>")
	return b.String()
}

func writeAmountRow(b *strings.Builder, label string, value float64) {
	b.WriteString("<tr><td class=\"label\">")
	b.WriteString(htmlEscape(label))
	b.WriteString("</td><td>")
	b.WriteString(formatMoney(value))
	b.WriteString("</td></tr>")
}

func htmlEscape(v string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(v)
}
