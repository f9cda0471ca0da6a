package email

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerage_backend/internal/events"
	"brokerage_backend/platform/logger"
)

func TestRenderBatchReport(t *testing.T) {
	subject, body, err := renderBatchReport(BatchReport{
		BatchID:  "b-1",
		State:    "completed",
		Sent:     4,
		Failed:   1,
		Excluded: 1,
		Errors:   []string{"Dana <x>: provider returned 502"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Outreach batch completed: 4 sent, 1 failed", subject)
	assert.Contains(t, body, "b-1")
	assert.Contains(t, body, "Dana &lt;x&gt;: provider returned 502")
}

func TestRenderBatchReportTruncatesErrors(t *testing.T) {
	errs := make([]string, maxReportErrors+3)
	for i := range errs {
		errs[i] = fmt.Sprintf("lead %d: failed", i)
	}
	_, body, err := renderBatchReport(BatchReport{State: "cancelled", Errors: errs})
	require.NoError(t, err)
	assert.Contains(t, body, "and 3 more")
	assert.NotContains(t, body, fmt.Sprintf("lead %d: failed", maxReportErrors))
}

type captureSender struct {
	to      string
	reports []BatchReport
}

func (c *captureSender) SendBatchReport(_ context.Context, to string, report BatchReport) error {
	c.to = to
	c.reports = append(c.reports, report)
	return nil
}

func TestReporterMailsOnBatchCompleted(t *testing.T) {
	bus := events.NewInMemoryBus(logger.Discard())
	sender := &captureSender{}
	NewReporter(sender, "ops@example.com", logger.Discard()).RegisterHandlers(bus)

	batchID := uuid.New()
	require.NoError(t, bus.PublishSync(context.Background(), events.OutreachBatchCompleted{
		BaseEvent: events.NewBaseEvent(),
		BatchID:   batchID,
		State:     "completed",
		Sent:      2,
	}))

	require.Len(t, sender.reports, 1)
	assert.Equal(t, "ops@example.com", sender.to)
	assert.Equal(t, batchID.String(), sender.reports[0].BatchID)
	assert.Equal(t, 2, sender.reports[0].Sent)
}
