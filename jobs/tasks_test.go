package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceldesk/parceldesk/internal/billing"
)

type stubBilling struct {
	invoices []billing.Invoice
}

func (s *stubBilling) Invoices(context.Context) ([]billing.Invoice, error) {
	return s.invoices, nil
}

type captureEnqueuer struct {
	reminders []ReminderPayload
}

func (c *captureEnqueuer) EnqueueReminder(_ context.Context, payload ReminderPayload) error {
	c.reminders = append(c.reminders, payload)
	return nil
}

func TestOverdueScanQueuesOnlyOverdue(t *testing.T) {
	source := &stubBilling{invoices: []billing.Invoice{
		{OrderID: 1, Number: "INV-1", Status: billing.StatusPaid},
		{OrderID: 2, Number: "INV-2", Status: billing.StatusOverdue, RemainingAmount: 120, CustomerName: "A"},
		{OrderID: 3, Number: "INV-3", Status: billing.StatusSent},
		{OrderID: 4, Number: "INV-4", Status: billing.StatusOverdue, RemainingAmount: 40, CustomerName: "B"},
	}}
	enqueuer := &captureEnqueuer{}
	handler := NewOverdueScanHandler(slog.Default(), source, enqueuer)

	err := handler(context.Background(), NewOverdueScanTask())
	require.NoError(t, err)

	require.Len(t, enqueuer.reminders, 2)
	assert.Equal(t, "INV-2", enqueuer.reminders[0].Invoice)
	assert.Equal(t, 120.0, enqueuer.reminders[0].Remaining)
	assert.Equal(t, "INV-4", enqueuer.reminders[1].Invoice)
}

func TestReminderHandlerRejectsBadPayload(t *testing.T) {
	handler := NewReminderHandler(slog.Default())

	task := asynq.NewTask(TaskSendReminder, []byte("not json"))
	err := handler(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReminderHandlerAcceptsPayload(t *testing.T) {
	handler := NewReminderHandler(slog.Default())

	payload := ReminderPayload{OrderID: 7, Invoice: "INV-7", Remaining: 33, DaysPastDue: 12}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	err = handler(context.Background(), asynq.NewTask(TaskSendReminder, data))
	assert.NoError(t, err)
}

func TestReminderTaskRoundTrip(t *testing.T) {
	payload := ReminderPayload{OrderID: 9, Invoice: "INV-9", CustomerID: 3, Remaining: 10}
	task, err := NewReminderTask(payload)
	require.NoError(t, err)
	assert.Equal(t, TaskSendReminder, task.Type())

	var decoded ReminderPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, payload, decoded)
}

func TestWorkerRequiresConfiguration(t *testing.T) {
	var w *Worker
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, w.Run(ctx))
}
