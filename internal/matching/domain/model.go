package domain

import (
	"time"

	"github.com/google/uuid"
)

// Property is the supply side. Category, PropertyType and ListingType keep
// the stored strings so nothing is lost on the way back out.
type Property struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Title          string
	Category       string
	PropertyType   string
	ListingType    string
	Price          *int64
	Rooms          *float64
	City           string
	Area           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Client is the demand side.
type Client struct {
	ID                    uuid.UUID
	OrganizationID        uuid.UUID
	FullName              string
	Phone                 string
	RequestType           string
	PreferredPropertyType string
	Budget                *int64
	PreferredRooms        *float64
	RoomsMin              *float64
	RoomsMax              *float64
	City                  string
	Area                  string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Match is a stored pairing. (PropertyID, ClientID) is unique.
type Match struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	PropertyID     uuid.UUID
	ClientID       uuid.UUID
	Category       Category
	Score          int
	Status         MatchStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Key identifies the pair a match is about.
func (m Match) Key() PairKey {
	return PairKey{PropertyID: m.PropertyID, ClientID: m.ClientID}
}

// PairKey is the uniqueness key of a match.
type PairKey struct {
	PropertyID uuid.UUID
	ClientID   uuid.UUID
}

// NewMatch is a scored pair that does not exist yet.
type NewMatch struct {
	PropertyID uuid.UUID
	ClientID   uuid.UUID
	Category   Category
	Score      int
}

func (m NewMatch) Key() PairKey {
	return PairKey{PropertyID: m.PropertyID, ClientID: m.ClientID}
}
