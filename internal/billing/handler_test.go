package billing

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceldesk/parceldesk/internal/authz"
	"github.com/parceldesk/parceldesk/internal/observability"
	"github.com/parceldesk/parceldesk/internal/orders"
)

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

func postPayment(t *testing.T, router chi.Router, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/billing/payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	actor := &authz.Actor{ID: 1, Role: authz.RoleAdmin, IsActive: true}
	req = req.WithContext(authz.ContextWithActor(req.Context(), actor))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRecordPaymentBumpsMetricsAndCache(t *testing.T) {
	order := fixtureOrder(orders.StatusShipped, orders.MethodCredit)
	svc, _ := newBillingFixture(t, order)

	metrics := observability.NewMetrics()
	dashboards := &countingInvalidator{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, svc, authz.Middleware{Logger: logger}, metrics, dashboards)

	router := chi.NewRouter()
	router.Route("/billing", handler.MountRoutes)

	rec := postPayment(t, router, `{"order_id":7,"amount":120,"method":"credit"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, dashboards.calls)

	metricsRec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metricsRec.Body.String(), "parceldesk_payments_recorded_total 1")

	// A rejected payment must bump neither.
	rec = postPayment(t, router, `{"order_id":7,"amount":999,"method":"credit"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, dashboards.calls)

	metricsRec = httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metricsRec.Body.String(), "parceldesk_payments_recorded_total 1")
}

func TestHandlerRecordPaymentNilCollaborators(t *testing.T) {
	order := fixtureOrder(orders.StatusShipped, orders.MethodCredit)
	svc, _ := newBillingFixture(t, order)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, svc, authz.Middleware{Logger: logger}, nil, nil)

	router := chi.NewRouter()
	router.Route("/billing", handler.MountRoutes)

	rec := postPayment(t, router, `{"order_id":7,"amount":120,"method":"credit"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
