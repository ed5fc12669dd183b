package fleet

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

// Handler manages fleet endpoints.
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

// MountRoutes registers fleet routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResFleet, authz.ActionRead))
		r.Get("/", h.listVehicles)
		r.Get("/{id}", h.getVehicle)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResFleet, authz.ActionCreate))
		r.Post("/", h.registerVehicle)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.ResFleet, authz.ActionUpdate))
		r.Post("/{id}/driver", h.assignDriver)
		r.Delete("/{id}/driver", h.releaseDriver)
		r.Post("/{id}/status", h.setStatus)
	})
}

func (h *Handler) listVehicles(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListVehicles(r.Context(), VehicleStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.logger.Error("list vehicles", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "List Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"vehicles": list})
}

func (h *Handler) getVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "vehicle id must be numeric")
		return
	}
	vehicle, err := h.service.GetVehicle(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "vehicle not found")
			return
		}
		h.logger.Error("get vehicle", slog.Any("error", err), slog.Int64("id", id))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, vehicle)
}

type registerVehicleRequest struct {
	Plate      string  `json:"plate" validate:"required"`
	Model      string  `json:"model"`
	CapacityKg float64 `json:"capacity_kg" validate:"required,gt=0"`
}

func (h *Handler) registerVehicle(w http.ResponseWriter, r *http.Request) {
	var req registerVehicleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	vehicle, err := h.service.RegisterVehicle(r.Context(), CreateVehicleInput{
		Plate:      req.Plate,
		Model:      req.Model,
		CapacityKg: req.CapacityKg,
	})
	if err != nil {
		h.logger.Error("register vehicle", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Create Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, vehicle)
}

type assignDriverRequest struct {
	DriverID   int64  `json:"driver_id" validate:"required"`
	DriverName string `json:"driver_name" validate:"required"`
}

func (h *Handler) assignDriver(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "vehicle id must be numeric")
		return
	}
	var req assignDriverRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	vehicle, err := h.service.AssignDriver(r.Context(), id, req.DriverID, req.DriverName)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "vehicle not found")
		case errors.Is(err, ErrNotAvailable):
			httpx.Problem(w, http.StatusConflict, "Not Available", err.Error())
		default:
			h.logger.Error("assign driver", slog.Any("error", err), slog.Int64("id", id))
			httpx.Problem(w, http.StatusBadRequest, "Assign Failed", err.Error())
		}
		return
	}
	httpx.JSON(w, http.StatusOK, vehicle)
}

func (h *Handler) releaseDriver(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "vehicle id must be numeric")
		return
	}
	vehicle, err := h.service.ReleaseDriver(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "vehicle not found")
			return
		}
		h.logger.Error("release driver", slog.Any("error", err), slog.Int64("id", id))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, vehicle)
}

type setVehicleStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "vehicle id must be numeric")
		return
	}
	var req setVehicleStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	vehicle, err := h.service.SetStatus(r.Context(), id, VehicleStatus(req.Status))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "vehicle not found")
			return
		}
		h.logger.Error("set vehicle status", slog.Any("error", err), slog.Int64("id", id))
		httpx.Problem(w, http.StatusBadRequest, "Update Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, vehicle)
}
