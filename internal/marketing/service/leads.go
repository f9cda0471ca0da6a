package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"brokerage_backend/internal/events"
	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/internal/marketing/personalize"
	"brokerage_backend/internal/marketing/repository"
	"brokerage_backend/internal/marketing/transport"
	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/sanitize"
)

func (s *Service) CreateLead(ctx context.Context, orgID uuid.UUID, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	normalized := s.normalizer.Normalize(req.PhoneNumber)
	if normalized == "" {
		return transport.LeadResponse{}, apperr.Validation("phone number is required")
	}
	lead := domain.Lead{
		ID:             uuid.New(),
		OrganizationID: orgID,
		PhoneNumber:    normalized,
		FirstName:      sanitize.Text(req.FirstName),
		LastName:       sanitize.Text(req.LastName),
		Neighborhood:   sanitize.Text(req.Neighborhood),
		Budget:         req.Budget,
		ClientType:     string(domain.ParseClientType(req.ClientType)),
		OptOutWhatsApp: domain.ParseOptOut(req.OptOutWhatsApp),
	}
	created, err := s.store.CreateLead(ctx, lead)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return mapLead(created), nil
}

func (s *Service) GetLead(ctx context.Context, orgID, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.store.GetLead(ctx, orgID, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return mapLead(lead), nil
}

func (s *Service) ListLeads(ctx context.Context, orgID uuid.UUID, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	clientType := ""
	if req.ClientType != "" {
		clientType = string(domain.ParseClientType(req.ClientType))
		if clientType == "" {
			return transport.LeadListResponse{}, apperr.Validation("unknown client type")
		}
	}
	leads, total, err := s.store.ListLeads(ctx, orgID, repository.LeadFilter{
		Neighborhood: sanitize.Text(req.Neighborhood),
		ClientType:   clientType,
		OptedOut:     req.OptedOut,
		Limit:        req.Limit,
		Offset:       req.Offset,
	})
	if err != nil {
		return transport.LeadListResponse{}, err
	}
	items := make([]transport.LeadResponse, len(leads))
	for i, l := range leads {
		items[i] = mapLead(l)
	}
	return transport.LeadListResponse{Items: items, Total: total}, nil
}

func (s *Service) SetOptOut(ctx context.Context, orgID, id uuid.UUID, req transport.SetOptOutRequest) (transport.LeadResponse, error) {
	if req.OptOut == nil {
		return transport.LeadResponse{}, apperr.Validation("optOut is required")
	}
	lead, err := s.store.SetOptOut(ctx, orgID, id, *req.OptOut)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	s.log.WithContext(ctx).Info("lead opt-out changed", "lead_id", id, "opt_out", *req.OptOut)
	return mapLead(lead), nil
}

// ListLogs returns the audit trail for one lead, oldest first.
func (s *Service) ListLogs(ctx context.Context, orgID, leadID uuid.UUID) (transport.MarketingLogListResponse, error) {
	if _, err := s.store.GetLead(ctx, orgID, leadID); err != nil {
		return transport.MarketingLogListResponse{}, err
	}
	logs, err := s.store.ListLogsByLead(ctx, orgID, leadID)
	if err != nil {
		return transport.MarketingLogListResponse{}, err
	}
	items := make([]transport.MarketingLogResponse, len(logs))
	for i, l := range logs {
		items[i] = mapLog(l)
	}
	return transport.MarketingLogListResponse{Items: items}, nil
}

func (s *Service) AddDoNotCall(ctx context.Context, orgID, operatorID uuid.UUID, req transport.AddDoNotCallRequest) (transport.DoNotCallResponse, error) {
	normalized := s.normalizer.Normalize(req.PhoneNumber)
	if normalized == "" {
		return transport.DoNotCallResponse{}, apperr.Validation("phone number is required")
	}
	entry, err := s.store.AddDoNotCall(ctx, domain.DoNotCallEntry{
		ID:             uuid.New(),
		OrganizationID: orgID,
		PhoneNumber:    normalized,
		Reason:         sanitize.Text(req.Reason),
		Notes:          sanitize.Message(req.Notes),
		CreatedBy:      &operatorID,
	})
	if err != nil {
		return transport.DoNotCallResponse{}, err
	}

	s.log.WithContext(ctx).Info("phone number added to do-not-call list", "entry_id", entry.ID)
	if s.bus != nil {
		s.bus.Publish(ctx, events.DoNotCallEntryAdded{
			BaseEvent:      events.NewBaseEvent(),
			OrganizationID: orgID,
			PhoneNumber:    entry.PhoneNumber,
			Reason:         entry.Reason,
		})
	}
	return mapDNC(entry), nil
}

func (s *Service) RemoveDoNotCall(ctx context.Context, orgID, id uuid.UUID) error {
	return s.store.RemoveDoNotCall(ctx, orgID, id)
}

func (s *Service) ListDoNotCall(ctx context.Context, orgID uuid.UUID) ([]transport.DoNotCallResponse, error) {
	entries, err := s.store.ListDoNotCall(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.DoNotCallResponse, len(entries))
	for i, e := range entries {
		out[i] = mapDNC(e)
	}
	return out, nil
}

// CheckDoNotCall answers canContact for a raw phone number and, when the
// number is barred, returns the entry that bars it.
func (s *Service) CheckDoNotCall(ctx context.Context, orgID uuid.UUID, rawPhone string) (transport.DoNotCallCheckResponse, error) {
	normalized := s.normalizer.Normalize(rawPhone)
	if normalized == "" {
		return transport.DoNotCallCheckResponse{}, apperr.Validation("phone number is required")
	}
	ok, err := s.gate.CanContact(ctx, orgID, normalized)
	if err != nil {
		return transport.DoNotCallCheckResponse{}, err
	}
	res := transport.DoNotCallCheckResponse{PhoneNumber: normalized, CanContact: ok}
	if ok {
		return res, nil
	}

	entry, err := s.store.GetDoNotCallByPhone(ctx, orgID, normalized)
	if apperr.Is(err, apperr.KindNotFound) {
		// Removed between the two reads.
		res.CanContact = true
		return res, nil
	}
	if err != nil {
		return transport.DoNotCallCheckResponse{}, err
	}
	mapped := mapDNC(entry)
	res.Entry = &mapped
	return res, nil
}

func (s *Service) ListTemplates() []transport.TemplateResponse {
	templates := s.catalog.List(s.locale)
	out := make([]transport.TemplateResponse, len(templates))
	for i, t := range templates {
		out[i] = transport.TemplateResponse{Name: t.Name, Locale: t.Locale, Body: t.Body}
	}
	return out
}

// Preview renders a message for a lead without sending it.
func (s *Service) Preview(ctx context.Context, orgID uuid.UUID, req transport.PreviewRequest) (transport.PreviewResponse, error) {
	body, err := s.resolveMessage(req.Message, req.Template)
	if err != nil {
		return transport.PreviewResponse{}, err
	}
	lead, err := s.store.GetLead(ctx, orgID, req.LeadID)
	if err != nil {
		return transport.PreviewResponse{}, err
	}
	unknown := personalize.UnknownTokens(body)
	if unknown == nil {
		unknown = []string{}
	}
	return transport.PreviewResponse{Message: s.personalizer.Render(body, lead), UnknownTokens: unknown}, nil
}

// errLeadNotFound reports whether err means the lead does not exist.
func errLeadNotFound(err error) bool {
	return errors.Is(err, domain.ErrLeadNotFound) || apperr.Is(err, apperr.KindNotFound)
}
