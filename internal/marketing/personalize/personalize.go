// Package personalize renders message templates against a lead.
package personalize

import (
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"brokerage_backend/internal/marketing/domain"
)

// Recognized tokens. Anything else in braces is left as written.
const (
	TokenFirstName    = "{first_name}"
	TokenLastName     = "{last_name}"
	TokenNeighborhood = "{neighborhood}"
	TokenBudget       = "{budget}"
	TokenClientType   = "{client_type}"
)

var knownTokens = map[string]bool{
	TokenFirstName:    true,
	TokenLastName:     true,
	TokenNeighborhood: true,
	TokenBudget:       true,
	TokenClientType:   true,
}

var tokenPattern = regexp.MustCompile(`\{[a-zA-Z_][a-zA-Z0-9_]*\}`)

// Personalizer substitutes lead attributes into templates.
type Personalizer struct {
	phrases Phrases
	printer *message.Printer
}

// New builds a Personalizer for a locale ("en" or "he").
func New(phrases Phrases, locale string) *Personalizer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Personalizer{phrases: phrases, printer: message.NewPrinter(tag)}
}

// Render never fails. Missing lead values become the locale's neutral
// phrase.
func (p *Personalizer) Render(template string, lead domain.Lead) string {
	r := strings.NewReplacer(
		TokenFirstName, orDefault(lead.FirstName, p.phrases.FirstName),
		TokenLastName, orDefault(lead.LastName, p.phrases.LastName),
		TokenNeighborhood, orDefault(lead.Neighborhood, p.phrases.Neighborhood),
		TokenBudget, p.budget(lead.Budget),
		TokenClientType, p.clientType(lead.ClientType),
	)
	return r.Replace(template)
}

func (p *Personalizer) budget(v *float64) string {
	if v == nil || *v <= 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return p.phrases.Budget
	}
	if *v == math.Trunc(*v) {
		return p.printer.Sprintf("%d", int64(*v))
	}
	return p.printer.Sprintf("%.2f", *v)
}

func (p *Personalizer) clientType(raw string) string {
	switch domain.ParseClientType(raw) {
	case domain.ClientTypeBuyer:
		return p.phrases.Buyer
	case domain.ClientTypeRenter:
		return p.phrases.Renter
	default:
		return p.phrases.UnknownClientType
	}
}

// UnknownTokens lists brace tokens in template that Render will not touch.
func UnknownTokens(template string) []string {
	var out []string
	seen := map[string]bool{}
	for _, tok := range tokenPattern.FindAllString(template, -1) {
		if knownTokens[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.TrimSpace(v)
}
