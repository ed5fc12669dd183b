package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/parceldesk/parceldesk/internal/authz"
	"github.com/parceldesk/parceldesk/internal/billing"
	"github.com/parceldesk/parceldesk/internal/platform/httpx"
)

// InvoiceSource is the slice of the billing service document rendering reads
// from. Exports never write.
type InvoiceSource interface {
	Invoices(ctx context.Context) ([]billing.Invoice, error)
	Invoice(ctx context.Context, orderID int64) (*billing.Invoice, error)
	OrderPayments(ctx context.Context, orderID int64) ([]billing.Payment, error)
	AgingReport(ctx context.Context) (billing.AgingReport, error)
}

// Handler serves downloadable documents rendered from derived billing data.
type Handler struct {
	logger *slog.Logger
	source InvoiceSource
	guard  authz.Middleware
	pdf    *PDFExporter
}

// NewHandler builds Handler instance. pdf may be nil when no Gotenberg
// endpoint is configured.
func NewHandler(logger *slog.Logger, source InvoiceSource, guard authz.Middleware, pdf *PDFExporter) *Handler {
	return &Handler{logger: logger, source: source, guard: guard, pdf: pdf}
}

// MountRoutes registers the export routes. Mounted alongside the billing
// routes so the download URLs live next to the JSON ones.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResInvoices, authz.ActionExport))
		r.Get("/invoices/export.csv", h.invoicesCSV)
		r.Get("/invoices/export.xlsx", h.invoicesXLSX)
		r.Get("/invoices/{orderID}/pdf", h.invoicePDF)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResReports, authz.ActionExport))
		r.Get("/aging.csv", h.agingCSV)
	})
}

func (h *Handler) invoicesCSV(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.source.Invoices(r.Context())
	if err != nil {
		h.logger.Error("export invoices csv", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.csv"`)
	if err := WriteInvoicesCSV(w, invoices); err != nil {
		h.logger.Error("write invoices csv", slog.Any("error", err))
	}
}

func (h *Handler) invoicesXLSX(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.source.Invoices(r.Context())
	if err != nil {
		h.logger.Error("export invoices xlsx", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	if err := WriteInvoicesXLSX(w, invoices); err != nil {
		h.logger.Error("write invoices xlsx", slog.Any("error", err))
	}
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF Unavailable", "pdf rendering is not configured")
		return
	}
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "order id must be numeric")
		return
	}
	inv, err := h.source.Invoice(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, billing.ErrOrderNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no invoice for this order")
			return
		}
		h.logger.Error("derive invoice", slog.Any("error", err), slog.Int64("order_id", orderID))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	payments, err := h.source.OrderPayments(r.Context(), orderID)
	if err != nil {
		h.logger.Error("list payments for pdf", slog.Any("error", err), slog.Int64("order_id", orderID))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	pdf, err := h.pdf.RenderInvoice(r.Context(), *inv, payments)
	if err != nil {
		h.logger.Error("render invoice pdf", slog.Any("error", err), slog.Int64("order_id", orderID))
		httpx.Problem(w, http.StatusBadGateway, "Render Failed", "pdf service error")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inv.Number+".pdf"))
	_, _ = w.Write(pdf)
}

func (h *Handler) agingCSV(w http.ResponseWriter, r *http.Request) {
	report, err := h.source.AgingReport(r.Context())
	if err != nil {
		h.logger.Error("aging report csv", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="aging.csv"`)
	if err := WriteAgingCSV(w, report); err != nil {
		h.logger.Error("write aging csv", slog.Any("error", err))
	}
}

var _ InvoiceSource = (*billing.Service)(nil)
