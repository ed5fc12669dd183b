package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/parceldesk/parceldesk/internal/authz"
	"github.com/parceldesk/parceldesk/internal/platform/httpx"
)

// Handler manages order intake endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResOrders, authz.ActionRead))
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResOrders, authz.ActionCreate))
		r.Post("/", h.createOrder)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResOrders, authz.ActionUpdate))
		r.Post("/{id}/status", h.updateStatus)
		r.Post("/{id}/assign", h.assignOrder)
	})
}

type createOrderRequest struct {
	CustomerID    int64      `json:"customer_id" validate:"required"`
	CustomerName  string     `json:"customer_name" validate:"required"`
	PaymentMethod string     `json:"payment_method" validate:"required,oneof=cod prepaid credit"`
	TotalAmount   float64    `json:"total_amount" validate:"required,gt=0"`
	DeliveryFee   float64    `json:"delivery_fee" validate:"gte=0"`
	Tax           float64    `json:"tax" validate:"gte=0"`
	Discount      float64    `json:"discount" validate:"gte=0"`
	Items         []LineItem `json:"items"`
	PickupAddress string     `json:"pickup_address"`
	DropAddress   string     `json:"drop_address"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.CreateOrder(r.Context(), CreateOrderInput{
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		PaymentMethod: PaymentMethod(req.PaymentMethod),
		TotalAmount:   req.TotalAmount,
		DeliveryFee:   req.DeliveryFee,
		Tax:           req.Tax,
		Discount:      req.Discount,
		Items:         req.Items,
		PickupAddress: req.PickupAddress,
		DropAddress:   req.DropAddress,
	})
	if err != nil {
		h.logger.Error("create order", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Create Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status: OrderStatus(r.URL.Query().Get("status")),
		Method: PaymentMethod(r.URL.Query().Get("payment_method")),
	}
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		filter.CustomerID, _ = strconv.ParseInt(raw, 10, 64)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		filter.Limit, _ = strconv.Atoi(raw)
	}
	list, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": list})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "order id must be numeric")
		return
	}
	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "order not found")
			return
		}
		h.logger.Error("get order", slog.Any("error", err), slog.Int64("id", id))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "order id must be numeric")
		return
	}
	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	order, err := h.service.UpdateStatus(r.Context(), id, OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "order not found")
		case errors.Is(err, ErrInvalidTransition):
			httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
		default:
			h.logger.Error("update order status", slog.Any("error", err), slog.Int64("id", id))
			httpx.Problem(w, http.StatusBadRequest, "Update Failed", err.Error())
		}
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

type assignRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
}

func (h *Handler) assignOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "order id must be numeric")
		return
	}
	var req assignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Assign(r.Context(), id, req.UserID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "order not found")
		case errors.Is(err, ErrInvalidTransition):
			httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
		default:
			h.logger.Error("assign order", slog.Any("error", err), slog.Int64("id", id))
			httpx.Problem(w, http.StatusBadRequest, "Assign Failed", err.Error())
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}
