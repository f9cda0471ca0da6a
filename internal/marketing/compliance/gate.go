// Package compliance decides whether a lead may be contacted right now.
package compliance

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/platform/phone"
)

// DoNotCallLookup answers whether a normalized number is barred.
type DoNotCallLookup interface {
	IsDoNotCall(ctx context.Context, orgID uuid.UUID, normalizedPhone string) (bool, error)
}

// Decision is the gate's verdict for one lead.
type Decision struct {
	Allowed bool
	Reason  domain.ExclusionReason
}

// Gate checks the do-not-call list and the lead's opt-out flag. It holds no
// state, so every call sees the current storage contents.
type Gate struct {
	dnc        DoNotCallLookup
	normalizer *phone.Normalizer
}

func NewGate(dnc DoNotCallLookup, normalizer *phone.Normalizer) *Gate {
	return &Gate{dnc: dnc, normalizer: normalizer}
}

// CanContact is false iff the normalized number is on the do-not-call list.
func (g *Gate) CanContact(ctx context.Context, orgID uuid.UUID, rawPhone string) (bool, error) {
	barred, err := g.dnc.IsDoNotCall(ctx, orgID, g.normalizer.Normalize(rawPhone))
	if err != nil {
		return false, fmt.Errorf("do-not-call lookup: %w", err)
	}
	return !barred, nil
}

// CheckLead applies both rules. Opt-out is reported first when both hold.
func (g *Gate) CheckLead(ctx context.Context, lead domain.Lead) (Decision, error) {
	if lead.OptOutWhatsApp {
		return Decision{Reason: domain.ExclusionOptedOut}, nil
	}
	ok, err := g.CanContact(ctx, lead.OrganizationID, lead.PhoneNumber)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Decision{Reason: domain.ExclusionDoNotCall}, nil
	}
	return Decision{Allowed: true}, nil
}

func (g *Gate) CanContactLead(ctx context.Context, lead domain.Lead) (bool, error) {
	d, err := g.CheckLead(ctx, lead)
	return d.Allowed, err
}
