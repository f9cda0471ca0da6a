package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateLeadRequest struct {
	PhoneNumber    string   `json:"phoneNumber" validate:"required,phone"`
	FirstName      string   `json:"firstName" validate:"max=100"`
	LastName       string   `json:"lastName" validate:"max=100"`
	Neighborhood   string   `json:"neighborhood" validate:"max=120"`
	Budget         *float64 `json:"budget,omitempty" validate:"omitempty,gt=0"`
	ClientType     string   `json:"clientType" validate:"max=40"`
	OptOutWhatsApp string   `json:"optOutWhatsApp" validate:"max=10"`
}

type ListLeadsRequest struct {
	Neighborhood string `form:"neighborhood"`
	ClientType   string `form:"clientType"`
	OptedOut     *bool  `form:"optedOut"`
	Limit        int    `form:"limit" validate:"omitempty,min=1,max=500"`
	Offset       int    `form:"offset" validate:"omitempty,min=0"`
}

type SetOptOutRequest struct {
	OptOut *bool `json:"optOut" validate:"required"`
}

type LeadResponse struct {
	ID             uuid.UUID  `json:"id"`
	PhoneNumber    string     `json:"phoneNumber"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Neighborhood   string     `json:"neighborhood"`
	Budget         *float64   `json:"budget,omitempty"`
	ClientType     string     `json:"clientType"`
	OptOutWhatsApp bool       `json:"optOutWhatsApp"`
	LastContacted  *time.Time `json:"lastContacted,omitempty"`
	ImportDate     time.Time  `json:"importDate"`
}

type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
}

type AddDoNotCallRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	Reason      string `json:"reason" validate:"max=200"`
	Notes       string `json:"notes" validate:"max=1000"`
}

type DoNotCallResponse struct {
	ID          uuid.UUID `json:"id"`
	PhoneNumber string    `json:"phoneNumber"`
	Reason      string    `json:"reason"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DoNotCallCheckResponse carries the barring entry when CanContact is false.
type DoNotCallCheckResponse struct {
	PhoneNumber string             `json:"phoneNumber"`
	CanContact  bool               `json:"canContact"`
	Entry       *DoNotCallResponse `json:"entry,omitempty"`
}

// SendMessageRequest sends one message. Exactly one of Message and Template
// is used; Message wins when both are set.
type SendMessageRequest struct {
	LeadID   uuid.UUID `json:"leadId" validate:"required"`
	Message  string    `json:"message" validate:"max=4000"`
	Template string    `json:"template" validate:"max=100"`
}

type SendMessageResponse struct {
	LeadID      uuid.UUID `json:"leadId"`
	PhoneNumber string    `json:"phoneNumber"`
	Message     string    `json:"message"`
	Status      string    `json:"status"`
}

type CreateBatchRequest struct {
	LeadIDs  []uuid.UUID `json:"leadIds" validate:"required,min=1,max=1000,dive,required"`
	Message  string      `json:"message" validate:"max=4000"`
	Template string      `json:"template" validate:"max=100"`
}

type BatchResponse struct {
	ID              uuid.UUID  `json:"id"`
	State           string     `json:"state"`
	Total           int        `json:"total"`
	Sent            int        `json:"sent"`
	Failed          int        `json:"failed"`
	Excluded        int        `json:"excluded"`
	Errors          []string   `json:"errors"`
	CancelRequested bool       `json:"cancelRequested"`
	CreatedAt       time.Time  `json:"createdAt"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

type BatchListResponse struct {
	Items []BatchResponse `json:"items"`
}

type MarketingLogResponse struct {
	ID          uuid.UUID  `json:"id"`
	LeadID      uuid.UUID  `json:"leadId"`
	BatchID     *uuid.UUID `json:"batchId,omitempty"`
	PhoneNumber string     `json:"phoneNumber"`
	Message     string     `json:"message"`
	Status      string     `json:"status"`
	SentBy      uuid.UUID  `json:"sentBy"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type MarketingLogListResponse struct {
	Items []MarketingLogResponse `json:"items"`
}

type TemplateResponse struct {
	Name   string `json:"name"`
	Locale string `json:"locale"`
	Body   string `json:"body"`
}

type PreviewRequest struct {
	LeadID   uuid.UUID `json:"leadId" validate:"required"`
	Message  string    `json:"message" validate:"max=4000"`
	Template string    `json:"template" validate:"max=100"`
}

type PreviewResponse struct {
	Message       string   `json:"message"`
	UnknownTokens []string `json:"unknownTokens"`
}
