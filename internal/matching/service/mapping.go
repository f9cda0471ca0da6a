package service

import (
	"brokerage_backend/internal/matching/domain"
	"brokerage_backend/internal/matching/transport"
)

func mapMatch(m domain.Match) transport.MatchResponse {
	return transport.MatchResponse{
		ID:         m.ID,
		PropertyID: m.PropertyID,
		ClientID:   m.ClientID,
		Category:   string(m.Category),
		Score:      m.Score,
		Status:     string(m.Status),
		CreatedAt:  m.CreatedAt,
	}
}

func mapMatches(in []domain.Match) []transport.MatchResponse {
	out := make([]transport.MatchResponse, len(in))
	for i, m := range in {
		out[i] = mapMatch(m)
	}
	return out
}

func mapProperty(p domain.Property) transport.PropertyResponse {
	return transport.PropertyResponse{
		ID:           p.ID,
		Title:        p.Title,
		Category:     p.Category,
		PropertyType: p.PropertyType,
		ListingType:  p.ListingType,
		Price:        p.Price,
		Rooms:        p.Rooms,
		City:         p.City,
		Area:         p.Area,
		CreatedAt:    p.CreatedAt,
	}
}

func mapClient(c domain.Client) transport.ClientResponse {
	return transport.ClientResponse{
		ID:                    c.ID,
		FullName:              c.FullName,
		Phone:                 c.Phone,
		RequestType:           c.RequestType,
		PreferredPropertyType: c.PreferredPropertyType,
		Budget:                c.Budget,
		PreferredRooms:        c.PreferredRooms,
		RoomsMin:              c.RoomsMin,
		RoomsMax:              c.RoomsMax,
		City:                  c.City,
		Area:                  c.Area,
		CreatedAt:             c.CreatedAt,
	}
}
