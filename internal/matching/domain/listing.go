package domain

// ListingType is the sale/rent axis, shared by a property's listing type and
// a client's request type.
type ListingType string

const (
	ListingTypeNone ListingType = ""
	ListingTypeSale ListingType = "sale"
	ListingTypeBuy  ListingType = "buy"
	ListingTypeRent ListingType = "rent"
)

type listingGroup int

const (
	groupNone listingGroup = iota
	groupPurchase
	groupRental
)

var listingTypeSynonyms = map[string]ListingType{
	"sale":   ListingTypeSale,
	"sell":   ListingTypeSale,
	"מכירה":  ListingTypeSale,
	"buy":    ListingTypeBuy,
	"קנייה":  ListingTypeBuy,
	"rent":   ListingTypeRent,
	"rental": ListingTypeRent,
	"השכרה":  ListingTypeRent,
	"שכירות": ListingTypeRent,
}

// NormalizeListingType maps a recognized value onto its canonical form and
// returns any other non-empty value unchanged (trimmed, lowercased).
func NormalizeListingType(raw string) ListingType {
	tag := normalizeTag(raw)
	if lt, ok := listingTypeSynonyms[tag]; ok {
		return lt
	}
	return ListingType(tag)
}

func (l ListingType) group() listingGroup {
	switch l {
	case ListingTypeSale, ListingTypeBuy:
		return groupPurchase
	case ListingTypeRent:
		return groupRental
	default:
		return groupNone
	}
}

// ListingTypesCompatible reports whether a property offered as propertyType
// can satisfy a client asking for clientType. An unset side is a wildcard.
// Identical values are compatible, as are two values in the same synonym
// group. Everything else is incompatible.
func ListingTypesCompatible(propertyType, clientType string) bool {
	p, c := NormalizeListingType(propertyType), NormalizeListingType(clientType)
	if p == ListingTypeNone || c == ListingTypeNone {
		return true
	}
	if p == c {
		return true
	}
	return p.group() != groupNone && p.group() == c.group()
}
