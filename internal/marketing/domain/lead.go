// Package domain holds the marketing context's records and closed
// vocabularies: leads, do-not-call entries, the append-only message log and
// outreach batches.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead is a marketing contact. PhoneNumber is stored normalized.
type Lead struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	PhoneNumber    string
	FirstName      string
	LastName       string
	Neighborhood   string
	Budget         *float64
	ClientType     string
	OptOutWhatsApp bool
	LastContacted  *time.Time
	ImportDate     time.Time
}

// DisplayName is "First Last", or the lead id when both are blank.
func (l Lead) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
	if name == "" {
		return l.ID.String()
	}
	return name
}

// ClientType is what the lead is looking for.
type ClientType string

const (
	ClientTypeUnknown ClientType = ""
	ClientTypeBuyer   ClientType = "buyer"
	ClientTypeRenter  ClientType = "renter"
)

var clientTypeSynonyms = map[string]ClientType{
	"buyer":  ClientTypeBuyer,
	"buy":    ClientTypeBuyer,
	"קונה":   ClientTypeBuyer,
	"renter": ClientTypeRenter,
	"rent":   ClientTypeRenter,
	"tenant": ClientTypeRenter,
	"שוכר":   ClientTypeRenter,
}

func ParseClientType(raw string) ClientType {
	return clientTypeSynonyms[strings.ToLower(strings.TrimSpace(raw))]
}

var optOutTruthy = map[string]bool{
	"true": true,
	"yes":  true,
	"1":    true,
	"כן":   true,
}

// ParseOptOut interprets an imported opt-out cell. Anything not explicitly
// truthy means the lead has not opted out.
func ParseOptOut(raw string) bool {
	return optOutTruthy[strings.ToLower(strings.TrimSpace(raw))]
}

// DoNotCallEntry bars a phone number from outbound contact. PhoneNumber is
// unique per organization.
type DoNotCallEntry struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	PhoneNumber    string
	Reason         string
	Notes          string
	CreatedBy      *uuid.UUID
	CreatedAt      time.Time
}

// LogStatus is the status of a MarketingLog row.
type LogStatus string

const (
	LogStatusSent   LogStatus = "sent"
	LogStatusFailed LogStatus = "failed"
)

// MarketingLog is one audited outbound message. Rows are never updated.
type MarketingLog struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	LeadID         uuid.UUID
	BatchID        *uuid.UUID
	PhoneNumber    string
	Message        string
	Status         LogStatus
	SentBy         uuid.UUID
	CreatedAt      time.Time
}
