package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/parceldesk/parceldesk/internal/analytics"
	"github.com/parceldesk/parceldesk/internal/billing"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOverdueScan walks the derived invoice book and queues reminders.
	TaskOverdueScan = "billing:overdue_scan"
	// TaskAnalyticsWarmup prefills the dashboard cache.
	TaskAnalyticsWarmup = "analytics:warmup"
	// TaskSendReminder delivers one overdue reminder.
	TaskSendReminder = "billing:send_reminder"
)

// ReminderPayload describes one overdue invoice reminder.
type ReminderPayload struct {
	OrderID      int64   `json:"order_id"`
	Invoice      string  `json:"invoice"`
	CustomerID   int64   `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Remaining    float64 `json:"remaining"`
	DaysPastDue  int     `json:"days_past_due"`
}

// NewOverdueScanTask constructs the periodic scan task.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskOverdueScan, nil)
}

// NewAnalyticsWarmupTask constructs the cache warmup task.
func NewAnalyticsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskAnalyticsWarmup, nil)
}

// NewReminderTask constructs a reminder task.
func NewReminderTask(payload ReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendReminder, data), nil
}

// BillingPort is the slice of the billing service the scan consumes.
type BillingPort interface {
	Invoices(ctx context.Context) ([]billing.Invoice, error)
}

// Enqueuer submits follow-up tasks from within a handler.
type Enqueuer interface {
	EnqueueReminder(ctx context.Context, payload ReminderPayload) error
}

// NewOverdueScanHandler builds the handler that derives the invoice book and
// queues one reminder per overdue invoice.
func NewOverdueScanHandler(logger *slog.Logger, billingPort BillingPort, enqueuer Enqueuer) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		invoices, err := billingPort.Invoices(ctx)
		if err != nil {
			return err
		}
		now := time.Now()
		queued := 0
		for _, inv := range invoices {
			if inv.Status != billing.StatusOverdue {
				continue
			}
			payload := ReminderPayload{
				OrderID:      inv.OrderID,
				Invoice:      inv.Number,
				CustomerID:   inv.CustomerID,
				CustomerName: inv.CustomerName,
				Remaining:    inv.RemainingAmount,
				DaysPastDue:  billing.DaysPastDue(inv, now),
			}
			if enqueuer != nil {
				if err := enqueuer.EnqueueReminder(ctx, payload); err != nil {
					logger.Warn("enqueue reminder", slog.Any("error", err), slog.String("invoice", inv.Number))
					continue
				}
			}
			queued++
		}
		logger.Info("overdue scan finished", slog.Int("invoices", len(invoices)), slog.Int("reminders", queued))
		return nil
	}
}

// NewAnalyticsWarmupHandler builds the handler that recomputes the dashboard
// so the first operator of the day reads from cache.
func NewAnalyticsWarmupHandler(logger *slog.Logger, svc *analytics.Service) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		if _, err := svc.Dashboard(ctx); err != nil {
			return err
		}
		logger.Info("analytics warmup finished")
		return nil
	}
}

// NewReminderHandler builds the handler that delivers one reminder. Delivery
// is a log line until an outbound mail channel exists.
func NewReminderHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(_ context.Context, t *asynq.Task) error {
		var payload ReminderPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Info("overdue reminder",
			slog.String("invoice", payload.Invoice),
			slog.String("customer", payload.CustomerName),
			slog.Float64("remaining", payload.Remaining))
		return nil
	}
}
