package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreatePropertyRequest struct {
	Title        string   `json:"title" validate:"max=200"`
	Category     string   `json:"category" validate:"required,max=40"`
	PropertyType string   `json:"propertyType" validate:"required,max=40"`
	ListingType  string   `json:"listingType" validate:"omitempty,max=40"`
	Price        *int64   `json:"price,omitempty" validate:"omitempty,gt=0"`
	Rooms        *float64 `json:"rooms,omitempty" validate:"omitempty,gt=0,lte=50"`
	City         string   `json:"city" validate:"max=120"`
	Area         string   `json:"area" validate:"max=120"`
}

type PropertyResponse struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	PropertyType string    `json:"propertyType"`
	ListingType  string    `json:"listingType"`
	Price        *int64    `json:"price,omitempty"`
	Rooms        *float64  `json:"rooms,omitempty"`
	City         string    `json:"city"`
	Area         string    `json:"area"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CreateClientRequest struct {
	FullName              string   `json:"fullName" validate:"required,max=200"`
	Phone                 string   `json:"phone" validate:"omitempty,phone"`
	RequestType           string   `json:"requestType" validate:"omitempty,max=40"`
	PreferredPropertyType string   `json:"preferredPropertyType" validate:"required,max=40"`
	Budget                *int64   `json:"budget,omitempty" validate:"omitempty,gt=0"`
	PreferredRooms        *float64 `json:"preferredRooms,omitempty" validate:"omitempty,gt=0,lte=50"`
	RoomsMin              *float64 `json:"roomsMin,omitempty" validate:"omitempty,gt=0,lte=50"`
	RoomsMax              *float64 `json:"roomsMax,omitempty" validate:"omitempty,gt=0,lte=50"`
	City                  string   `json:"city" validate:"max=120"`
	Area                  string   `json:"area" validate:"max=120"`
}

type ClientResponse struct {
	ID                    uuid.UUID `json:"id"`
	FullName              string    `json:"fullName"`
	Phone                 string    `json:"phone"`
	RequestType           string    `json:"requestType"`
	PreferredPropertyType string    `json:"preferredPropertyType"`
	Budget                *int64    `json:"budget,omitempty"`
	PreferredRooms        *float64  `json:"preferredRooms,omitempty"`
	RoomsMin              *float64  `json:"roomsMin,omitempty"`
	RoomsMax              *float64  `json:"roomsMax,omitempty"`
	City                  string    `json:"city"`
	Area                  string    `json:"area"`
	CreatedAt             time.Time `json:"createdAt"`
}

type GenerateMatchesRequest struct {
	Category string `json:"category" validate:"required"`
}

type GenerateMatchesResponse struct {
	Category string          `json:"category"`
	Created  []MatchResponse `json:"created"`
	// Skipped counts candidates that another run stored first.
	Skipped int `json:"skipped"`
}

type ListMatchesRequest struct {
	Category string `form:"category"`
	Status   string `form:"status"`
	// IncludeIncompatible keeps matches whose listing types no longer agree.
	IncludeIncompatible bool `form:"includeIncompatible"`
}

type UpdateMatchStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type MatchResponse struct {
	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"propertyId"`
	ClientID   uuid.UUID `json:"clientId"`
	Category   string    `json:"category"`
	Score      int       `json:"matchScore"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

type MatchListResponse struct {
	Items []MatchResponse `json:"items"`
	Total int             `json:"total"`
}

type ScoreBreakdownResponse struct {
	PropertyID uuid.UUID `json:"propertyId"`
	ClientID   uuid.UUID `json:"clientId"`
	Category   string    `json:"category,omitempty"`
	Compatible bool      `json:"compatible"`
	Type       int       `json:"type"`
	Area       int       `json:"area"`
	Budget     int       `json:"budget"`
	Rooms      int       `json:"rooms"`
	Total      int       `json:"total"`
}
