// Package phone canonicalizes phone numbers so every lookup and every
// outbound send agrees on one key per subscriber.
package phone

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "IL"

// Normalizer turns user-entered numbers into digit-only international form.
// A leading trunk prefix (0) is replaced with the region's country code, and
// an international access prefix (00) is dropped.
type Normalizer struct {
	region      string
	countryCode string
}

// NewNormalizer builds a Normalizer for an ISO region code such as "IL".
// Unknown regions fall back to DefaultRegion.
func NewNormalizer(region string) *Normalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	code := phonenumbers.GetCountryCodeForRegion(region)
	if code == 0 {
		region = DefaultRegion
		code = phonenumbers.GetCountryCodeForRegion(region)
	}
	return &Normalizer{region: region, countryCode: strconv.Itoa(code)}
}

func (n *Normalizer) Region() string { return n.region }

// Normalize strips every non-digit and rewrites local prefixes. An input with
// no digits normalizes to "".
func (n *Normalizer) Normalize(raw string) string {
	digits := digitsOnly(raw)
	switch {
	case digits == "":
		return ""
	case strings.HasPrefix(digits, "00"):
		return digits[2:]
	case strings.HasPrefix(digits, "0"):
		return n.countryCode + digits[1:]
	default:
		return digits
	}
}

// IsPossible reports whether raw could be a dialable number once normalized.
func (n *Normalizer) IsPossible(raw string) bool {
	normalized := n.Normalize(raw)
	if normalized == "" {
		return false
	}
	num, err := phonenumbers.Parse("+"+normalized, n.region)
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumber(num)
}

// E164 formats raw as +<digits>, or returns "" when it has no digits.
func (n *Normalizer) E164(raw string) string {
	normalized := n.Normalize(raw)
	if normalized == "" {
		return ""
	}
	return "+" + normalized
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
