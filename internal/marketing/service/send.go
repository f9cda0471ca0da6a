package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"brokerage_backend/internal/marketing/dispatch"
	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/internal/marketing/transport"
	"brokerage_backend/platform/apperr"
)

// SendMessage sends one message to one lead through the same per-lead step
// the batch runs. A lead the compliance gate excludes is a Forbidden error.
func (s *Service) SendMessage(ctx context.Context, orgID, operatorID uuid.UUID, req transport.SendMessageRequest) (transport.SendMessageResponse, error) {
	body, err := s.resolveMessage(req.Message, req.Template)
	if err != nil {
		return transport.SendMessageResponse{}, err
	}

	lr, _ := s.dispatcher.SendOne(ctx, dispatch.Request{
		OrganizationID: orgID,
		OperatorID:     operatorID,
		Template:       body,
	}, req.LeadID)

	if err := outcomeError(lr); err != nil {
		return transport.SendMessageResponse{}, err
	}
	return transport.SendMessageResponse{
		LeadID:      lr.LeadID,
		PhoneNumber: lr.PhoneNumber,
		Message:     lr.Message,
		Status:      string(domain.LogStatusSent),
	}, nil
}

// outcomeError maps a single-send outcome onto the HTTP error taxonomy.
func outcomeError(lr dispatch.LeadResult) error {
	switch lr.Outcome.Kind {
	case domain.OutcomeSent:
		return nil
	case domain.OutcomeExcluded:
		return apperr.Forbidden("lead cannot be contacted").WithDetails(map[string]string{"reason": string(lr.Outcome.Reason)})
	}
	err := lr.Err()
	switch {
	case errLeadNotFound(err):
		return apperr.NotFound(domain.ErrLeadNotFound.Error())
	case errors.Is(err, domain.ErrNoPhone):
		return apperr.Validation(domain.ErrNoPhone.Error())
	default:
		return apperr.Wrap(apperr.KindUnavailable, "message could not be sent", err)
	}
}
