package engine

import (
	"github.com/google/uuid"

	"brokerage_backend/internal/matching/domain"
)

// Generate pairs every property and client in category, drops pairs already
// present in existing (or emitted earlier in the same run) and keeps those
// scoring at least MinScore. Output order follows properties, then clients.
// Unclassifiable records are skipped silently.
func Generate(properties []domain.Property, clients []domain.Client, existing []domain.Match, category domain.Category) []domain.NewMatch {
	if !category.Valid() {
		return nil
	}

	seen := make(map[domain.PairKey]struct{}, len(existing))
	for _, m := range existing {
		seen[m.Key()] = struct{}{}
	}

	props := filterProperties(properties, category)
	cls := filterClients(clients, category)

	out := make([]domain.NewMatch, 0)
	for _, p := range props {
		for _, c := range cls {
			if !domain.ListingTypesCompatible(p.ListingType, c.RequestType) {
				continue
			}
			key := domain.PairKey{PropertyID: p.ID, ClientID: c.ID}
			if _, dup := seen[key]; dup {
				continue
			}
			score := Score(p, c)
			if score < MinScore {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, domain.NewMatch{
				PropertyID: p.ID,
				ClientID:   c.ID,
				Category:   category,
				Score:      score,
			})
		}
	}
	return out
}

// FilterOptions tunes FilterMatches.
type FilterOptions struct {
	// SkipListingCheck keeps matches whose listing types no longer agree.
	SkipListingCheck bool
}

// FilterMatches narrows stored matches to category. A match whose property
// or client is missing from the pools is dropped.
func FilterMatches(matches []domain.Match, properties []domain.Property, clients []domain.Client, category domain.Category, opts FilterOptions) []domain.Match {
	if !category.Valid() {
		return nil
	}
	propByID := make(map[uuid.UUID]domain.Property, len(properties))
	for _, p := range properties {
		propByID[p.ID] = p
	}
	clientByID := make(map[uuid.UUID]domain.Client, len(clients))
	for _, c := range clients {
		clientByID[c.ID] = c
	}

	out := make([]domain.Match, 0, len(matches))
	for _, m := range matches {
		p, ok := propByID[m.PropertyID]
		if !ok {
			continue
		}
		c, ok := clientByID[m.ClientID]
		if !ok {
			continue
		}
		if !domain.PropertyIn(p, category) || !domain.ClientIn(c, category) {
			continue
		}
		if !opts.SkipListingCheck && !domain.ListingTypesCompatible(p.ListingType, c.RequestType) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func filterProperties(in []domain.Property, category domain.Category) []domain.Property {
	out := make([]domain.Property, 0, len(in))
	for _, p := range in {
		if domain.PropertyIn(p, category) {
			out = append(out, p)
		}
	}
	return out
}

func filterClients(in []domain.Client, category domain.Category) []domain.Client {
	out := make([]domain.Client, 0, len(in))
	for _, c := range in {
		if domain.ClientIn(c, category) {
			out = append(out, c)
		}
	}
	return out
}
