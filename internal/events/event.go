// Package events defines the domain events exchanged between modules.
package events

import (
	"github.com/google/uuid"

	"brokerage_backend/platform/events"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var NewBaseEvent = events.NewBaseEvent

// MatchesGenerated is published after a generation run persisted new matches.
type MatchesGenerated struct {
	BaseEvent
	OrganizationID uuid.UUID   `json:"organizationId"`
	Category       string      `json:"category"`
	MatchIDs       []uuid.UUID `json:"matchIds"`
	Skipped        int         `json:"skipped"`
}

func (e MatchesGenerated) EventName() string { return "matching.generated" }

// OutreachBatchCompleted is published when a bulk dispatch stops, either
// because every lead was processed or because it was cancelled.
type OutreachBatchCompleted struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	BatchID        uuid.UUID `json:"batchId"`
	RequestedBy    uuid.UUID `json:"requestedBy"`
	State          string    `json:"state"`
	Sent           int       `json:"sent"`
	Failed         int       `json:"failed"`
	Excluded       int       `json:"excluded"`
	Errors         []string  `json:"errors"`
}

func (e OutreachBatchCompleted) EventName() string { return "marketing.outreach_batch.completed" }

// DoNotCallEntryAdded is published after a number was barred.
type DoNotCallEntryAdded struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	PhoneNumber    string    `json:"phoneNumber"`
	Reason         string    `json:"reason"`
}

func (e DoNotCallEntryAdded) EventName() string { return "marketing.dnc.added" }
