package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerage_backend/internal/events"
	"brokerage_backend/internal/marketing/dispatch"
	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/internal/marketing/transport"
	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/logger"
	"brokerage_backend/platform/phone"
)

var (
	orgID      = uuid.MustParse("3c1d2e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f")
	operatorID = uuid.MustParse("9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d")
)

type recordingSender struct {
	mu     sync.Mutex
	sent   []dispatch.OutboundMessage
	fail   error
	onSend func(msg dispatch.OutboundMessage)
}

func (r *recordingSender) Send(_ context.Context, msg dispatch.OutboundMessage) error {
	if r.onSend != nil {
		r.onSend(msg)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type instantPacer struct{}

func (instantPacer) Wait(ctx context.Context) error { return ctx.Err() }

// slowPacer blocks until ctx ends or a generous timeout passes.
type slowPacer struct{}

func (slowPacer) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return nil
	}
}

type syncEnqueuer struct {
	svc *Service
	err error
}

func (e *syncEnqueuer) EnqueueBatch(ctx context.Context, orgID, batchID uuid.UUID, _ int) error {
	if e.err != nil {
		return e.err
	}
	return e.svc.RunBatch(ctx, orgID, batchID)
}

type fixture struct {
	store  *memStore
	sender *recordingSender
	bus    *events.InMemoryBus
	svc    *Service
}

func newFixture(t *testing.T, pacer dispatch.Pacer) *fixture {
	t.Helper()
	f := &fixture{store: newMemStore(), sender: &recordingSender{}, bus: events.NewInMemoryBus(nil)}
	svc, err := New(Deps{
		Store:      f.store,
		Sender:     f.sender,
		Pacer:      pacer,
		Normalizer: phone.NewNormalizer("IL"),
		Bus:        f.bus,
		CancelPoll: time.Millisecond,
	})
	require.NoError(t, err)
	svc.SetEnqueuer(&syncEnqueuer{svc: svc})
	f.svc = svc
	return f
}

func (f *fixture) lead(t *testing.T, first, phoneNumber string) transport.LeadResponse {
	t.Helper()
	l, err := f.svc.CreateLead(context.Background(), orgID, transport.CreateLeadRequest{
		PhoneNumber: phoneNumber,
		FirstName:   first,
		ClientType:  "buyer",
	})
	require.NoError(t, err)
	return l
}

func TestAddDoNotCallRejectsDuplicate(t *testing.T) {
	f := newFixture(t, instantPacer{})
	ctx := context.Background()

	_, err := f.svc.AddDoNotCall(ctx, orgID, operatorID, transport.AddDoNotCallRequest{PhoneNumber: "050-0000001", Reason: "asked"})
	require.NoError(t, err)

	_, err = f.svc.AddDoNotCall(ctx, orgID, operatorID, transport.AddDoNotCallRequest{PhoneNumber: "+972 50 000 0001"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	entries, err := f.svc.ListDoNotCall(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "972500000001", entries[0].PhoneNumber)
}

func TestCheckDoNotCall(t *testing.T) {
	f := newFixture(t, instantPacer{})
	ctx := context.Background()
	_, err := f.svc.AddDoNotCall(ctx, orgID, operatorID, transport.AddDoNotCallRequest{PhoneNumber: "0500000001", Reason: "asked"})
	require.NoError(t, err)

	res, err := f.svc.CheckDoNotCall(ctx, orgID, "050-000-0001")
	require.NoError(t, err)
	assert.False(t, res.CanContact)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "972500000001", res.Entry.PhoneNumber)
	assert.Equal(t, "asked", res.Entry.Reason)

	res, err = f.svc.CheckDoNotCall(ctx, orgID, "050-000-0002")
	require.NoError(t, err)
	assert.True(t, res.CanContact)
	assert.Nil(t, res.Entry)

	_, err = f.svc.CheckDoNotCall(ctx, orgID, "--")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateLeadNormalizesInput(t *testing.T) {
	f := newFixture(t, instantPacer{})
	l, err := f.svc.CreateLead(context.Background(), orgID, transport.CreateLeadRequest{
		PhoneNumber:    "050-123-4567",
		FirstName:      "  <b>Yael</b> ",
		ClientType:     "שוכר",
		OptOutWhatsApp: "כן",
	})
	require.NoError(t, err)
	assert.Equal(t, "972501234567", l.PhoneNumber)
	assert.Equal(t, "Yael", l.FirstName)
	assert.Equal(t, "renter", l.ClientType)
	assert.True(t, l.OptOutWhatsApp)
}

func TestSendMessageToExcludedLeadIsForbidden(t *testing.T) {
	f := newFixture(t, instantPacer{})
	ctx := context.Background()
	l := f.lead(t, "Dana", "0500000001")
	_, err := f.svc.AddDoNotCall(ctx, orgID, operatorID, transport.AddDoNotCallRequest{PhoneNumber: "0500000001"})
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, orgID, operatorID, transport.SendMessageRequest{LeadID: l.ID, Message: "Hi {first_name}"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Zero(t, f.sender.count())
	assert.Zero(t, f.store.logsFor(l.ID))
}

func TestSendMessageSuccess(t *testing.T) {
	f := newFixture(t, instantPacer{})
	ctx := context.Background()
	l := f.lead(t, "Dana", "0500000001")

	res, err := f.svc.SendMessage(ctx, orgID, operatorID, transport.SendMessageRequest{LeadID: l.ID, Message: "Hi {first_name}"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Dana", res.Message)
	assert.Equal(t, "sent", res.Status)

	logs, err := f.svc.ListLogs(ctx, orgID, l.ID)
	require.NoError(t, err)
	require.Len(t, logs.Items, 1)
	assert.Equal(t, operatorID, logs.Items[0].SentBy)
	assert.Equal(t, "Hi Dana", logs.Items[0].Message)

	got, err := f.svc.GetLead(ctx, orgID, l.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastContacted)
}

func TestSendMessageErrors(t *testing.T) {
	f := newFixture(t, instantPacer{})
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, orgID, operatorID, transport.SendMessageRequest{LeadID: uuid.New(), Message: "hi"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.SendMessage(ctx, orgID, operatorID, transport.SendMessageRequest{LeadID: uuid.New()})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.SendMessage(ctx, orgID, operatorID, transport.SendMessageRequest{LeadID: uuid.New(), Template: "nope"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	noPhone := domain.Lead{ID: uuid.New(), OrganizationID: orgID}
	_, err = f.store.CreateLead(ctx, noPhone)
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, orgID, operatorID, transport.SendMessageRequest{LeadID: noPhone.ID, Message: "hi"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	l := f.lead(t, "Dana", "0500000001")
	f.sender.fail = errors.New("provider returned 500")
	_, err = f.svc.SendMessage(ctx, orgID, operatorID, transport.SendMessageRequest{LeadID: l.ID, Message: "hi"})
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))
	assert.Zero(t, f.store.logsFor(l.ID))
}

func TestBatchSkipsDoNotCallLead(t *testing.T) {
	f := newFixture(t, instantPacer{})
	ctx := context.Background()
	l := f.lead(t, "Dana", "050-0000001")
	_, err := f.svc.AddDoNotCall(ctx, orgID, operatorID, transport.AddDoNotCallRequest{PhoneNumber: "050-0000001"})
	require.NoError(t, err)

	created, err := f.svc.CreateBatch(ctx, orgID, operatorID, transport.CreateBatchRequest{LeadIDs: []uuid.UUID{l.ID}, Message: "Hi"})
	require.NoError(t, err)

	b, err := f.svc.GetBatch(ctx, orgID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", b.State)
	assert.Equal(t, 0, b.Sent)
	assert.Equal(t, 1, b.Excluded)
	assert.Zero(t, f.store.logsFor(l.ID))
}

func TestBatchWithOptedOutLead(t *testing.T) {
	f := newFixture(t, instantPacer{})
	ctx := context.Background()

	completed := make(chan events.OutreachBatchCompleted, 1)
	f.bus.Subscribe(events.OutreachBatchCompleted{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		completed <- e.(events.OutreachBatchCompleted)
		return nil
	}))

	ids := make([]uuid.UUID, 0, 5)
	var optedOut uuid.UUID
	for i, p := range []string{"0500000001", "0500000002", "0500000003", "0500000004", "0500000005"} {
		l := f.lead(t, "Lead", p)
		ids = append(ids, l.ID)
		if i == 3 {
			_, err := f.svc.SetOptOut(ctx, orgID, l.ID, transport.SetOptOutRequest{OptOut: ptr(true)})
			require.NoError(t, err)
			optedOut = l.ID
		}
	}

	created, err := f.svc.CreateBatch(ctx, orgID, operatorID, transport.CreateBatchRequest{LeadIDs: ids, Template: "new_listing"})
	require.NoError(t, err)
	f.bus.Wait()

	b, err := f.svc.GetBatch(ctx, orgID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, b.Sent)
	assert.Equal(t, 1, b.Excluded)
	assert.Equal(t, 0, b.Failed)
	assert.Equal(t, 4, f.sender.count())
	assert.Len(t, f.store.logs, 4)
	assert.Zero(t, f.store.logsFor(optedOut))

	select {
	case e := <-completed:
		assert.Equal(t, created.ID, e.BatchID)
		assert.Equal(t, 4, e.Sent)
		assert.Equal(t, "completed", e.State)
	default:
		t.Fatal("batch completion event not published")
	}
}

func TestBatchReportsMissingLeads(t *testing.T) {
	f := newFixture(t, instantPacer{})
	ctx := context.Background()
	l := f.lead(t, "Dana", "0500000001")
	missing := uuid.New()

	created, err := f.svc.CreateBatch(ctx, orgID, operatorID, transport.CreateBatchRequest{LeadIDs: []uuid.UUID{missing, l.ID}, Message: "hi"})
	require.NoError(t, err)

	b, err := f.svc.GetBatch(ctx, orgID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Sent)
	assert.Equal(t, 1, b.Failed)
	assert.Equal(t, []string{missing.String() + ": lead not found"}, b.Errors)
}

func TestCreateBatchEnqueueFailure(t *testing.T) {
	f := newFixture(t, instantPacer{})
	f.svc.SetEnqueuer(&syncEnqueuer{svc: f.svc, err: errors.New("redis down")})
	l := f.lead(t, "Dana", "0500000001")

	_, err := f.svc.CreateBatch(context.Background(), orgID, operatorID, transport.CreateBatchRequest{LeadIDs: []uuid.UUID{l.ID}, Message: "hi"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))

	batches, err := f.svc.ListBatches(context.Background(), orgID, 10)
	require.NoError(t, err)
	require.Len(t, batches.Items, 1)
	assert.Equal(t, "cancelled", batches.Items[0].State)
	assert.Zero(t, f.sender.count())
}

func TestRunBatchSkipsNonPendingBatch(t *testing.T) {
	f := newFixture(t, instantPacer{})
	ctx := context.Background()
	l := f.lead(t, "Dana", "0500000001")

	created, err := f.svc.CreateBatch(ctx, orgID, operatorID, transport.CreateBatchRequest{LeadIDs: []uuid.UUID{l.ID}, Message: "hi"})
	require.NoError(t, err)
	require.NoError(t, f.svc.RunBatch(ctx, orgID, created.ID))
	assert.Equal(t, 1, f.sender.count())
}

func TestRunBatchReportsStoreFailureOnCompletion(t *testing.T) {
	f := newFixture(t, instantPacer{})
	ctx := context.Background()
	l := f.lead(t, "Dana", "0500000001")
	f.svc.SetEnqueuer(&noopEnqueuer{})

	created, err := f.svc.CreateBatch(ctx, orgID, operatorID, transport.CreateBatchRequest{LeadIDs: []uuid.UUID{l.ID}, Message: "hi"})
	require.NoError(t, err)

	var buf bytes.Buffer
	f.svc.log = logger.NewWithWriter("production", &buf)
	f.store.completeErr = errors.New("connection reset")

	err = f.svc.RunBatch(ctx, orgID, created.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Contains(t, buf.String(), `"msg":"database_error"`)
	assert.Contains(t, buf.String(), "complete outreach batch")
	assert.Equal(t, 1, f.sender.count())
}

func TestRunBatchCancelledBeforeStart(t *testing.T) {
	f := newFixture(t, instantPacer{})
	ctx := context.Background()
	l := f.lead(t, "Dana", "0500000001")
	f.svc.SetEnqueuer(&noopEnqueuer{})

	created, err := f.svc.CreateBatch(ctx, orgID, operatorID, transport.CreateBatchRequest{LeadIDs: []uuid.UUID{l.ID}, Message: "hi"})
	require.NoError(t, err)
	_, err = f.svc.CancelBatch(ctx, orgID, created.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.RunBatch(ctx, orgID, created.ID))
	b, err := f.svc.GetBatch(ctx, orgID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", b.State)
	assert.Zero(t, f.sender.count())

	_, err = f.svc.CancelBatch(ctx, orgID, created.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRunBatchStopsWhenCancelRequested(t *testing.T) {
	f := newFixture(t, slowPacer{})
	ctx := context.Background()
	first := f.lead(t, "A", "0500000001")
	second := f.lead(t, "B", "0500000002")
	f.svc.SetEnqueuer(&noopEnqueuer{})

	created, err := f.svc.CreateBatch(ctx, orgID, operatorID, transport.CreateBatchRequest{LeadIDs: []uuid.UUID{first.ID, second.ID}, Message: "hi"})
	require.NoError(t, err)
	f.sender.onSend = func(dispatch.OutboundMessage) {
		_, err := f.store.RequestCancel(ctx, orgID, created.ID)
		assert.NoError(t, err)
	}

	require.NoError(t, f.svc.RunBatch(ctx, orgID, created.ID))

	b, err := f.svc.GetBatch(ctx, orgID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", b.State)
	assert.Equal(t, 1, b.Sent)
	assert.Equal(t, 1, f.sender.count())
	assert.Zero(t, f.store.logsFor(second.ID))
}

func TestInProcessEnqueuerRunsBatch(t *testing.T) {
	store := newMemStore()
	sender := &recordingSender{}
	svc, err := New(Deps{Store: store, Sender: sender, Pacer: instantPacer{}})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	ctx := context.Background()
	l, err := svc.CreateLead(ctx, orgID, transport.CreateLeadRequest{PhoneNumber: "0500000001", FirstName: "Dana"})
	require.NoError(t, err)

	created, err := svc.CreateBatch(ctx, orgID, operatorID, transport.CreateBatchRequest{LeadIDs: []uuid.UUID{l.ID}, Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "pending", created.State)

	require.Eventually(t, func() bool {
		b, err := svc.GetBatch(ctx, orgID, created.ID)
		return err == nil && b.State == "completed"
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, sender.count())
}

func TestPreviewReportsUnknownTokens(t *testing.T) {
	f := newFixture(t, instantPacer{})
	l := f.lead(t, "Dana", "0500000001")

	res, err := f.svc.Preview(context.Background(), orgID, transport.PreviewRequest{LeadID: l.ID, Message: "Hi {first_name} {nickname}"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Dana {nickname}", res.Message)
	assert.Equal(t, []string{"{nickname}"}, res.UnknownTokens)
}

type noopEnqueuer struct{}

func (noopEnqueuer) EnqueueBatch(context.Context, uuid.UUID, uuid.UUID, int) error { return nil }

func ptr[T any](v T) *T { return &v }
