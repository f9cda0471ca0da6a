// Package domain holds the closed vocabularies of the matching context and
// the classifier that maps stored records onto them. Raw strings coming from
// storage or requests are normalized here once; everything downstream only
// compares the typed values.
package domain

import "strings"

// Category is the coarse segment a property or a client belongs to.
type Category string

const (
	CategoryNone        Category = ""
	CategoryResidential Category = "residential"
	CategoryCommercial  Category = "commercial"
)

func (c Category) Valid() bool {
	return c == CategoryResidential || c == CategoryCommercial
}

// Stored category tags. The Hebrew tags are what the brokerage's legacy data
// carries; "מסחרי" is an older spelling of the commercial tag.
var propertyCategoryTags = map[string]Category{
	"residential": CategoryResidential,
	"מגורים":      CategoryResidential,
	"commercial":  CategoryCommercial,
	"משרדים":      CategoryCommercial,
	"מסחרי":       CategoryCommercial,
}

// ParseCategory accepts either an English or a stored Hebrew tag.
func ParseCategory(raw string) (Category, bool) {
	c, ok := propertyCategoryTags[normalizeTag(raw)]
	return c, ok
}

// PropertyType is the normalized form of a free-form property type.
type PropertyType string

const (
	PropertyTypeUnknown      PropertyType = ""
	PropertyTypeApartment    PropertyType = "apartment"
	PropertyTypePrivateHouse PropertyType = "private_house"
	PropertyTypeHouse        PropertyType = "house"
	PropertyTypeOffice       PropertyType = "office"
	PropertyTypeCommercial   PropertyType = "commercial"
)

var propertyTypeSynonyms = map[string]PropertyType{
	"apartment":     PropertyTypeApartment,
	"דירה":          PropertyTypeApartment,
	"private_house": PropertyTypePrivateHouse,
	"private house": PropertyTypePrivateHouse,
	"בית פרטי":      PropertyTypePrivateHouse,
	"house":         PropertyTypeHouse,
	"בית":           PropertyTypeHouse,
	"office":        PropertyTypeOffice,
	"משרד":          PropertyTypeOffice,
	"commercial":    PropertyTypeCommercial,
	"retail":        PropertyTypeCommercial,
	"מסחרי":         PropertyTypeCommercial,
}

// NormalizePropertyType maps a stored or requested type onto PropertyType.
// Unrecognized values yield PropertyTypeUnknown.
func NormalizePropertyType(raw string) PropertyType {
	return propertyTypeSynonyms[normalizeTag(raw)]
}

var residentialTypes = map[PropertyType]bool{
	PropertyTypeApartment:    true,
	PropertyTypePrivateHouse: true,
	PropertyTypeHouse:        true,
}

var commercialTypes = map[PropertyType]bool{
	PropertyTypeOffice:     true,
	PropertyTypeCommercial: true,
}

// CategoryOfType returns the category whose type set contains t.
func CategoryOfType(t PropertyType) Category {
	switch {
	case residentialTypes[t]:
		return CategoryResidential
	case commercialTypes[t]:
		return CategoryCommercial
	default:
		return CategoryNone
	}
}

func normalizeTag(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}
