// Package engine scores property/client pairs and turns pools into new
// matches.
package engine

import (
	"math"
	"strings"

	"brokerage_backend/internal/matching/domain"
)

const (
	// MinScore is the lowest score surfaced as a match.
	MinScore = 60

	maxTypeScore   = 25
	maxAreaScore   = 25
	maxBudgetScore = 30
	maxRoomsScore  = 20

	// Partial credit when one side is unknown or only loosely agrees.
	sameCategoryTypeScore = 10
	cityOnlyScore         = 15
	unknownAreaScore      = 12
	unknownBudgetScore    = 15
	unknownRoomsScore     = 10
	adjacentRoomsScore    = 10
)

// budgetBands award points by how much headroom the budget leaves above the
// price, as a fraction of the price. Evaluated in order.
var budgetBands = []struct {
	maxHeadroom float64
	points      int
}{
	{0.15, 30},
	{0.30, 24},
	{0.50, 18},
	{math.Inf(1), 12},
}

// shortfallBands cover budgets slightly under the asking price.
var shortfallBands = []struct {
	maxShortfall float64
	points       int
}{
	{0.05, 15},
	{0.10, 8},
}

// Breakdown is the per-factor result of Score.
type Breakdown struct {
	Type   int `json:"type"`
	Area   int `json:"area"`
	Budget int `json:"budget"`
	Rooms  int `json:"rooms"`
}

func (b Breakdown) Total() int {
	total := b.Type + b.Area + b.Budget + b.Rooms
	return max(0, min(100, total))
}

// Score rates how well p fits c on a 0-100 scale. It does not check
// category or listing type; see domain.PairCompatible.
func Score(p domain.Property, c domain.Client) int {
	return Explain(p, c).Total()
}

func Explain(p domain.Property, c domain.Client) Breakdown {
	return Breakdown{
		Type:   typeScore(p, c),
		Area:   areaScore(p, c),
		Budget: budgetScore(p.Price, c.Budget),
		Rooms:  roomsScore(p.Rooms, c),
	}
}

func typeScore(p domain.Property, c domain.Client) int {
	pt := domain.NormalizePropertyType(p.PropertyType)
	ct := domain.NormalizePropertyType(c.PreferredPropertyType)
	switch {
	case pt == domain.PropertyTypeUnknown || ct == domain.PropertyTypeUnknown:
		return 0
	case pt == ct:
		return maxTypeScore
	case domain.CategoryOfType(pt) == domain.CategoryOfType(ct):
		return sameCategoryTypeScore
	default:
		return 0
	}
}

func areaScore(p domain.Property, c domain.Client) int {
	wantArea, wantCity := fold(c.Area), fold(c.City)
	if wantArea == "" && wantCity == "" {
		return unknownAreaScore
	}
	if wantArea != "" && (wantArea == fold(p.Area) || wantArea == fold(p.City)) {
		return maxAreaScore
	}
	if wantCity != "" && wantCity == fold(p.City) {
		return cityOnlyScore
	}
	return 0
}

func budgetScore(price, budget *int64) int {
	if price == nil || budget == nil || *price <= 0 || *budget <= 0 {
		return unknownBudgetScore
	}
	pr, bu := float64(*price), float64(*budget)
	if bu >= pr {
		headroom := (bu - pr) / pr
		for _, band := range budgetBands {
			if headroom <= band.maxHeadroom {
				return band.points
			}
		}
	}
	shortfall := (pr - bu) / pr
	for _, band := range shortfallBands {
		if shortfall <= band.maxShortfall {
			return band.points
		}
	}
	return 0
}

func roomsScore(rooms *float64, c domain.Client) int {
	if rooms == nil {
		return unknownRoomsScore
	}
	r := *rooms

	if c.RoomsMin != nil || c.RoomsMax != nil {
		lo, hi := math.Inf(-1), math.Inf(1)
		if c.RoomsMin != nil {
			lo = *c.RoomsMin
		}
		if c.RoomsMax != nil {
			hi = *c.RoomsMax
		}
		switch {
		case r >= lo && r <= hi:
			return maxRoomsScore
		case r >= lo-1 && r <= hi+1:
			return adjacentRoomsScore
		default:
			return 0
		}
	}

	if c.PreferredRooms == nil {
		return unknownRoomsScore
	}
	diff := math.Abs(r - *c.PreferredRooms)
	switch {
	case diff < 0.01:
		return maxRoomsScore
	case diff <= 1:
		return adjacentRoomsScore
	default:
		return 0
	}
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
