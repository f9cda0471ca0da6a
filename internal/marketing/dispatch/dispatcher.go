// Package dispatch sends a personalized message to an ordered list of leads,
// one at a time, with a randomized pause between sends.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"brokerage_backend/internal/marketing/compliance"
	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/logger"
	"brokerage_backend/platform/metrics"
	"brokerage_backend/platform/phone"
)

// LeadReader loads the current state of a lead. It is called once per lead,
// right before that lead is processed.
type LeadReader interface {
	GetLead(ctx context.Context, orgID, leadID uuid.UUID) (domain.Lead, error)
}

// ContactGate is satisfied by *compliance.Gate.
type ContactGate interface {
	CheckLead(ctx context.Context, lead domain.Lead) (compliance.Decision, error)
}

// Renderer is satisfied by *personalize.Personalizer.
type Renderer interface {
	Render(template string, lead domain.Lead) string
}

// OutboundMessage is what the messaging provider receives.
type OutboundMessage struct {
	PhoneNumber string
	Message     string
	LeadID      uuid.UUID
}

// Sender delivers one message. Any error is a failed send.
type Sender interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// AuditLog appends MarketingLog rows.
type AuditLog interface {
	AppendLog(ctx context.Context, entry domain.MarketingLog) error
}

// ContactRecorder stamps last_contacted after a successful send.
type ContactRecorder interface {
	MarkContacted(ctx context.Context, orgID, leadID uuid.UUID, at time.Time) error
}

// Request describes one batch run.
type Request struct {
	OrganizationID uuid.UUID
	BatchID        *uuid.UUID
	OperatorID     uuid.UUID
	Template       string
	LeadIDs        []uuid.UUID
}

// LeadResult is the outcome for one lead.
type LeadResult struct {
	LeadID      uuid.UUID
	Name        string
	PhoneNumber string
	Message     string
	Outcome     domain.Outcome
}

// Result is the batch summary. Excluded leads count in neither Sent nor
// Failed.
type Result struct {
	State    domain.BatchState
	Sent     int
	Failed   int
	Excluded int
	Errors   []string
	Leads    []LeadResult
}

type Dispatcher struct {
	leads      LeadReader
	gate       ContactGate
	renderer   Renderer
	sender     Sender
	audit      AuditLog
	contacts   ContactRecorder
	pacer      Pacer
	normalizer *phone.Normalizer
	now        func() time.Time
	log        *logger.Logger
}

type Deps struct {
	Leads      LeadReader
	Gate       ContactGate
	Renderer   Renderer
	Sender     Sender
	Audit      AuditLog
	Contacts   ContactRecorder
	Pacer      Pacer
	Normalizer *phone.Normalizer
	Now        func() time.Time
	Log        *logger.Logger
}

func New(d Deps) *Dispatcher {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	if d.Pacer == nil {
		d.Pacer = NewRandomPacer(DefaultMinDelay, DefaultJitter)
	}
	if d.Normalizer == nil {
		d.Normalizer = phone.NewNormalizer(phone.DefaultRegion)
	}
	return &Dispatcher{
		leads:      d.Leads,
		gate:       d.Gate,
		renderer:   d.Renderer,
		sender:     d.Sender,
		audit:      d.Audit,
		contacts:   d.Contacts,
		pacer:      d.Pacer,
		normalizer: d.Normalizer,
		now:        d.Now,
		log:        d.Log,
	}
}

// Run processes req.LeadIDs in order. It returns once every lead has been
// handled (State Completed) or ctx was cancelled (State Cancelled). A
// cancellation never interrupts a send already under way; it takes effect
// before the next lead. Per-lead problems never abort the batch.
func (d *Dispatcher) Run(ctx context.Context, req Request) Result {
	log := d.log.WithContext(ctx)
	if req.BatchID != nil {
		log = log.WithBatch(req.BatchID.String())
	}

	res := Result{State: domain.BatchRunning, Errors: []string{}, Leads: make([]LeadResult, 0, len(req.LeadIDs))}
	for i, leadID := range req.LeadIDs {
		if ctx.Err() != nil {
			res.State = domain.BatchCancelled
			break
		}

		lr := d.attempt(ctx, req, leadID)
		d.settle(ctx, req, &lr, &res, log)
		res.Leads = append(res.Leads, lr)

		if i == len(req.LeadIDs)-1 {
			break
		}
		if err := d.pacer.Wait(ctx); err != nil {
			res.State = domain.BatchCancelled
			break
		}
	}
	if res.State == domain.BatchRunning {
		res.State = domain.BatchCompleted
	}
	metrics.RecordBatchFinished(string(res.State))
	log.Info("outreach batch finished",
		"state", res.State,
		"sent", res.Sent,
		"failed", res.Failed,
		"excluded", res.Excluded,
		"total", len(req.LeadIDs),
	)
	return res
}

// SendOne runs the per-lead step for a single lead without pacing.
func (d *Dispatcher) SendOne(ctx context.Context, req Request, leadID uuid.UUID) (LeadResult, Result) {
	res := Result{State: domain.BatchRunning, Errors: []string{}}
	lr := d.attempt(ctx, req, leadID)
	d.settle(ctx, req, &lr, &res, d.log.WithContext(ctx))
	res.Leads = []LeadResult{lr}
	res.State = domain.BatchCompleted
	return lr, res
}

// attempt reads the lead, renders, consults the gate and calls the provider.
// It performs no bookkeeping writes.
func (d *Dispatcher) attempt(ctx context.Context, req Request, leadID uuid.UUID) LeadResult {
	lr := LeadResult{LeadID: leadID, Name: leadID.String()}

	lead, err := d.leads.GetLead(ctx, req.OrganizationID, leadID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			lr.Outcome = domain.Failed(domain.ErrLeadNotFound)
		} else {
			lr.Outcome = domain.Failed(fmt.Errorf("load lead: %w", err))
		}
		return lr
	}
	lr.Name = lead.DisplayName()
	lr.PhoneNumber = d.normalizer.Normalize(lead.PhoneNumber)
	lr.Message = d.renderer.Render(req.Template, lead)

	decision, err := d.gate.CheckLead(ctx, lead)
	if err != nil {
		lr.Outcome = domain.Failed(fmt.Errorf("compliance check: %w", err))
		return lr
	}
	if !decision.Allowed {
		lr.Outcome = domain.Excluded(decision.Reason)
		return lr
	}
	if lr.PhoneNumber == "" {
		lr.Outcome = domain.Failed(domain.ErrNoPhone)
		return lr
	}

	sendCtx := context.WithoutCancel(ctx)
	if err := d.sender.Send(sendCtx, OutboundMessage{PhoneNumber: lr.PhoneNumber, Message: lr.Message, LeadID: lead.ID}); err != nil {
		lr.Outcome = domain.Failed(err)
		return lr
	}
	lr.Outcome = domain.Sent()
	return lr
}

// settle applies the outcome: counters, the audit row and last_contacted.
func (d *Dispatcher) settle(ctx context.Context, req Request, lr *LeadResult, res *Result, log *logger.Logger) {
	metrics.RecordLeadOutcome(string(lr.Outcome.Kind))
	log.LeadOutcome(lr.LeadID.String(), string(lr.Outcome.Kind), lr.Outcome.Detail())

	switch lr.Outcome.Kind {
	case domain.OutcomeExcluded:
		res.Excluded++
		return
	case domain.OutcomeFailed:
		res.Failed++
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", lr.Name, lr.Outcome.Detail()))
		return
	}

	res.Sent++
	bookCtx := context.WithoutCancel(ctx)
	now := d.now()

	entry := domain.MarketingLog{
		ID:             uuid.New(),
		OrganizationID: req.OrganizationID,
		LeadID:         lr.LeadID,
		BatchID:        req.BatchID,
		PhoneNumber:    lr.PhoneNumber,
		Message:        lr.Message,
		Status:         domain.LogStatusSent,
		SentBy:         req.OperatorID,
		CreatedAt:      now,
	}
	if err := d.audit.AppendLog(bookCtx, entry); err != nil {
		log.Error("audit log append failed after send", "lead_id", lr.LeadID, "error", err)
		res.Errors = append(res.Errors, fmt.Sprintf("%s: audit log: %v", lr.Name, err))
	}

	if err := d.contacts.MarkContacted(bookCtx, req.OrganizationID, lr.LeadID, now); err != nil {
		log.Warn("failed to update last_contacted", "lead_id", lr.LeadID, "error", err)
	}
}

// IsExcluded reports whether the compliance gate suppressed the send.
func (lr LeadResult) IsExcluded() bool {
	return lr.Outcome.Kind == domain.OutcomeExcluded
}

// Err returns the failure cause, or nil.
func (lr LeadResult) Err() error {
	if lr.Outcome.Kind != domain.OutcomeFailed {
		return nil
	}
	if lr.Outcome.Err == nil {
		return errors.New("send failed")
	}
	return lr.Outcome.Err
}
