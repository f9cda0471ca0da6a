package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/internal/marketing/repository"
	"brokerage_backend/platform/apperr"
)

// memStore mirrors the table constraints the service relies on: one
// do-not-call row per (organization, phone) and conditional batch updates.
type memStore struct {
	mu        sync.Mutex
	leads     map[uuid.UUID]domain.Lead
	dnc       []domain.DoNotCallEntry
	logs      []domain.MarketingLog
	batches   map[uuid.UUID]domain.Batch
	contacted map[uuid.UUID]time.Time

	completeErr error
}

func newMemStore() *memStore {
	return &memStore{
		leads:     map[uuid.UUID]domain.Lead{},
		batches:   map[uuid.UUID]domain.Batch{},
		contacted: map[uuid.UUID]time.Time{},
	}
}

func (m *memStore) CreateLead(_ context.Context, l domain.Lead) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ImportDate = time.Now()
	m.leads[l.ID] = l
	return l, nil
}

func (m *memStore) GetLead(_ context.Context, orgID, id uuid.UUID) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok || l.OrganizationID != orgID {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	return l, nil
}

func (m *memStore) ListLeads(_ context.Context, orgID uuid.UUID, f repository.LeadFilter) ([]domain.Lead, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Lead, 0)
	for _, l := range m.leads {
		if l.OrganizationID != orgID {
			continue
		}
		if f.ClientType != "" && l.ClientType != f.ClientType {
			continue
		}
		if f.OptedOut != nil && l.OptOutWhatsApp != *f.OptedOut {
			continue
		}
		out = append(out, l)
	}
	return out, len(out), nil
}

func (m *memStore) SetOptOut(_ context.Context, orgID, id uuid.UUID, optOut bool) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok || l.OrganizationID != orgID {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	l.OptOutWhatsApp = optOut
	m.leads[id] = l
	return l, nil
}

func (m *memStore) MarkContacted(_ context.Context, _, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacted[id] = at
	l := m.leads[id]
	l.LastContacted = &at
	m.leads[id] = l
	return nil
}

func (m *memStore) AddDoNotCall(_ context.Context, e domain.DoNotCallEntry) (domain.DoNotCallEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.dnc {
		if existing.OrganizationID == e.OrganizationID && existing.PhoneNumber == e.PhoneNumber {
			return domain.DoNotCallEntry{}, apperr.Conflict("phone number is already on the do-not-call list")
		}
	}
	e.CreatedAt = time.Now()
	m.dnc = append(m.dnc, e)
	return e, nil
}

func (m *memStore) RemoveDoNotCall(_ context.Context, orgID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.dnc {
		if e.ID == id && e.OrganizationID == orgID {
			m.dnc = append(m.dnc[:i], m.dnc[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("do-not-call entry not found")
}

func (m *memStore) ListDoNotCall(_ context.Context, orgID uuid.UUID) ([]domain.DoNotCallEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.DoNotCallEntry, 0)
	for _, e := range m.dnc {
		if e.OrganizationID == orgID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) IsDoNotCall(_ context.Context, orgID uuid.UUID, normalized string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.dnc {
		if e.OrganizationID == orgID && e.PhoneNumber == normalized {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) GetDoNotCallByPhone(_ context.Context, orgID uuid.UUID, normalized string) (domain.DoNotCallEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.dnc {
		if e.OrganizationID == orgID && e.PhoneNumber == normalized {
			return e, nil
		}
	}
	return domain.DoNotCallEntry{}, apperr.NotFound("do-not-call entry not found")
}

func (m *memStore) AppendLog(_ context.Context, e domain.MarketingLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, e)
	return nil
}

func (m *memStore) ListLogsByLead(_ context.Context, orgID, leadID uuid.UUID) ([]domain.MarketingLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MarketingLog, 0)
	for _, l := range m.logs {
		if l.OrganizationID == orgID && l.LeadID == leadID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) CreateBatch(_ context.Context, b domain.Batch) (domain.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.State = domain.BatchPending
	b.Errors = []string{}
	b.CreatedAt = time.Now()
	m.batches[b.ID] = b
	return b, nil
}

func (m *memStore) GetBatch(_ context.Context, orgID, id uuid.UUID) (domain.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok || b.OrganizationID != orgID {
		return domain.Batch{}, apperr.NotFound("outreach batch not found")
	}
	return b, nil
}

func (m *memStore) ListBatches(_ context.Context, orgID uuid.UUID, _ int) ([]domain.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Batch, 0)
	for _, b := range m.batches {
		if b.OrganizationID == orgID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) MarkBatchRunning(_ context.Context, orgID, id uuid.UUID, at time.Time) (domain.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok || b.OrganizationID != orgID || b.State != domain.BatchPending {
		return domain.Batch{}, apperr.Conflict("outreach batch is not pending")
	}
	b.State = domain.BatchRunning
	b.StartedAt = &at
	m.batches[id] = b
	return b, nil
}

func (m *memStore) CompleteBatch(_ context.Context, b domain.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completeErr != nil {
		return m.completeErr
	}
	current, ok := m.batches[b.ID]
	if !ok || current.State.Final() {
		return apperr.Conflict("outreach batch already finished")
	}
	b.CancelRequested = current.CancelRequested
	m.batches[b.ID] = b
	return nil
}

func (m *memStore) RequestCancel(_ context.Context, orgID, id uuid.UUID) (domain.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok || b.OrganizationID != orgID {
		return domain.Batch{}, apperr.NotFound("outreach batch not found")
	}
	if b.State.Final() {
		return domain.Batch{}, apperr.Conflict("outreach batch already finished")
	}
	b.CancelRequested = true
	m.batches[id] = b
	return b, nil
}

func (m *memStore) IsCancelRequested(_ context.Context, orgID, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok || b.OrganizationID != orgID {
		return false, apperr.NotFound("outreach batch not found")
	}
	return b.CancelRequested, nil
}

func (m *memStore) logsFor(leadID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.logs {
		if l.LeadID == leadID {
			n++
		}
	}
	return n
}
