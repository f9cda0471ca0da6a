package service

import (
	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/internal/marketing/transport"
)

func mapLead(l domain.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:             l.ID,
		PhoneNumber:    l.PhoneNumber,
		FirstName:      l.FirstName,
		LastName:       l.LastName,
		Neighborhood:   l.Neighborhood,
		Budget:         l.Budget,
		ClientType:     l.ClientType,
		OptOutWhatsApp: l.OptOutWhatsApp,
		LastContacted:  l.LastContacted,
		ImportDate:     l.ImportDate,
	}
}

func mapDNC(e domain.DoNotCallEntry) transport.DoNotCallResponse {
	return transport.DoNotCallResponse{
		ID:          e.ID,
		PhoneNumber: e.PhoneNumber,
		Reason:      e.Reason,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
	}
}

func mapLog(l domain.MarketingLog) transport.MarketingLogResponse {
	return transport.MarketingLogResponse{
		ID:          l.ID,
		LeadID:      l.LeadID,
		BatchID:     l.BatchID,
		PhoneNumber: l.PhoneNumber,
		Message:     l.Message,
		Status:      string(l.Status),
		SentBy:      l.SentBy,
		CreatedAt:   l.CreatedAt,
	}
}

func mapBatch(b domain.Batch) transport.BatchResponse {
	errs := b.Errors
	if errs == nil {
		errs = []string{}
	}
	return transport.BatchResponse{
		ID:              b.ID,
		State:           string(b.State),
		Total:           len(b.LeadIDs),
		Sent:            b.Sent,
		Failed:          b.Failed,
		Excluded:        b.Excluded,
		Errors:          errs,
		CancelRequested: b.CancelRequested,
		CreatedAt:       b.CreatedAt,
		StartedAt:       b.StartedAt,
		CompletedAt:     b.CompletedAt,
	}
}
