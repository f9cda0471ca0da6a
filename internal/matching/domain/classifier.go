package domain

// ClassifyProperty reads the property's stored category tag. A missing or
// unrecognized tag yields CategoryNone; the property type is not consulted.
func ClassifyProperty(p Property) Category {
	c, _ := ParseCategory(p.Category)
	return c
}

// ClassifyClient places a client by its preferred property type.
func ClassifyClient(c Client) Category {
	return CategoryOfType(NormalizePropertyType(c.PreferredPropertyType))
}

// PropertyIn reports whether p classifies into category. CategoryNone never
// matches anything.
func PropertyIn(p Property, category Category) bool {
	return category.Valid() && ClassifyProperty(p) == category
}

func ClientIn(c Client, category Category) bool {
	return category.Valid() && ClassifyClient(c) == category
}

// PairCompatible is the candidacy rule: both sides in category and the
// listing types compatible.
func PairCompatible(p Property, c Client, category Category) bool {
	return PropertyIn(p, category) && ClientIn(c, category) && ListingTypesCompatible(p.ListingType, c.RequestType)
}
