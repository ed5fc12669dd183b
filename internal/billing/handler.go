package billing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/parceldesk/parceldesk/internal/authz"
	"github.com/parceldesk/parceldesk/internal/observability"
	"github.com/parceldesk/parceldesk/internal/orders"
	"github.com/parceldesk/parceldesk/internal/platform/httpx"
)

// DashboardInvalidator drops cached dashboard figures after a write so the
// next read recomputes from the ledger.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Handler serves the derived invoice book, the payment ledger and the
// financial reports. Document exports live in the export subpackage.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	guard      authz.Middleware
	validator  *validator.Validate
	metrics    *observability.Metrics
	dashboards DashboardInvalidator
}

// NewHandler builds Handler instance. metrics and dashboards may be nil.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware, metrics *observability.Metrics, dashboards DashboardInvalidator) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		guard:      guard,
		validator:  validator.New(),
		metrics:    metrics,
		dashboards: dashboards,
	}
}

// MountRoutes registers billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResInvoices, authz.ActionRead))
		r.Get("/invoices", h.listInvoices)
		r.Get("/invoices/{orderID}", h.getInvoice)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResPayments, authz.ActionRead))
		r.Get("/payments", h.listPayments)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResPayments, authz.ActionCreate))
		r.Post("/payments", h.recordPayment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResReports, authz.ActionRead))
		r.Get("/aging", h.agingReport)
		r.Get("/summary", h.summary)
	})
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.service.Invoices(r.Context())
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "order id must be numeric")
		return
	}
	inv, err := h.service.Invoice(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no invoice for this order")
			return
		}
		h.logger.Error("derive invoice", slog.Any("error", err), slog.Int64("order_id", orderID))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.Payments(r.Context())
	if err != nil {
		h.logger.Error("list payments", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": payments})
}

type recordPaymentRequest struct {
	OrderID int64   `json:"order_id" validate:"required"`
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	Method  string  `json:"method" validate:"required,oneof=cod prepaid credit"`
	PaidAt  string  `json:"paid_at"`
	Note    string  `json:"note"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := RecordPaymentInput{
		OrderID: req.OrderID,
		Amount:  req.Amount,
		Method:  orders.PaymentMethod(req.Method),
		Note:    req.Note,
	}
	if req.PaidAt != "" {
		paidAt, err := time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "paid_at must be RFC3339")
			return
		}
		input.PaidAt = paidAt
	}
	payment, inv, err := h.service.RecordPayment(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "order not found")
		case errors.Is(err, ErrNotPayable), errors.Is(err, ErrExceedsBalance):
			httpx.Problem(w, http.StatusConflict, "Payment Rejected", err.Error())
		default:
			h.logger.Error("record payment", slog.Any("error", err), slog.Int64("order_id", req.OrderID))
			httpx.Problem(w, http.StatusBadRequest, "Payment Failed", err.Error())
		}
		return
	}

	h.metrics.PaymentRecorded()
	if h.dashboards != nil {
		if err := h.dashboards.Invalidate(r.Context()); err != nil {
			h.logger.Warn("invalidate dashboard cache", slog.Any("error", err))
		}
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{"payment": payment, "invoice": inv})
}

func (h *Handler) agingReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.AgingReport(r.Context())
	if err != nil {
		h.logger.Error("aging report", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("financial summary", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
