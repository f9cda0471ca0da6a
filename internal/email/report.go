package email

import (
	"context"
	"fmt"

	"brokerage_backend/internal/events"
	"brokerage_backend/platform/logger"
)

// Reporter mails a summary to the operator inbox whenever an outreach batch
// stops.
type Reporter struct {
	sender Sender
	to     string
	log    *logger.Logger
}

func NewReporter(sender Sender, to string, log *logger.Logger) *Reporter {
	return &Reporter{sender: sender, to: to, log: log}
}

func (r *Reporter) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.OutreachBatchCompleted{}.EventName(), events.HandlerFunc(r.handleBatchCompleted))
}

func (r *Reporter) handleBatchCompleted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.OutreachBatchCompleted)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}
	err := r.sender.SendBatchReport(ctx, r.to, BatchReport{
		BatchID:  e.BatchID.String(),
		State:    e.State,
		Sent:     e.Sent,
		Failed:   e.Failed,
		Excluded: e.Excluded,
		Errors:   e.Errors,
	})
	if err != nil {
		return fmt.Errorf("send batch report: %w", err)
	}
	r.log.Info("batch report mailed", "batch_id", e.BatchID)
	return nil
}
