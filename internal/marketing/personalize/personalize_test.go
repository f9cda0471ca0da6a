package personalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerage_backend/internal/marketing/domain"
)

const allTokens = "{first_name} {last_name} in {neighborhood}, {budget}, {client_type}"

func newEnglish(t *testing.T) *Personalizer {
	t.Helper()
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	return New(cat.PhrasesFor("en"), "en")
}

func budget(v float64) *float64 { return &v }

func TestRenderFullyPopulatedLeadLeavesNoTokens(t *testing.T) {
	p := newEnglish(t)
	lead := domain.Lead{FirstName: "Dana", LastName: "Levi", Neighborhood: "Florentin", Budget: budget(1_100_000), ClientType: "buyer"}

	out := p.Render(allTokens, lead)

	assert.Equal(t, "Dana Levi in Florentin, 1,100,000, to buy", out)
	assert.Empty(t, tokenPattern.FindAllString(out, -1))
}

func TestRenderMissingFieldsUseDefaults(t *testing.T) {
	p := newEnglish(t)
	out := p.Render(allTokens, domain.Lead{})

	assert.Equal(t, "there  in your area, your budget, to buy or rent", out)
	assert.NotContains(t, out, "{")
}

func TestRenderClientTypes(t *testing.T) {
	p := newEnglish(t)
	assert.Equal(t, "to rent", p.Render("{client_type}", domain.Lead{ClientType: "שוכר"}))
	assert.Equal(t, "to buy", p.Render("{client_type}", domain.Lead{ClientType: "קונה"}))
}

func TestRenderKeepsUnknownTokens(t *testing.T) {
	p := newEnglish(t)
	out := p.Render("Hi {first_name}, see {listing_url}", domain.Lead{FirstName: "Noa"})
	assert.Equal(t, "Hi Noa, see {listing_url}", out)
	assert.Equal(t, []string{"{listing_url}"}, UnknownTokens("Hi {first_name}, see {listing_url} {listing_url}"))
}

func TestRenderBudgetDecimals(t *testing.T) {
	p := newEnglish(t)
	assert.Equal(t, "4,500.50", p.Render("{budget}", domain.Lead{Budget: budget(4500.5)}))
	assert.Equal(t, "your budget", p.Render("{budget}", domain.Lead{Budget: budget(0)}))
}

func TestRenderHebrewDefaults(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	p := New(cat.PhrasesFor("he"), "he")
	assert.Equal(t, "שם האזור התקציב לקנייה", p.Render("{first_name} {neighborhood} {budget} {client_type}", domain.Lead{ClientType: "קונה"}))
}

func TestLoadCatalogMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  - name: new_listing
    locale: en
    body: "Hello {first_name}"
  - name: open_house
    locale: en
    body: "Open house in {neighborhood}"
`), 0o600))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)

	tpl, ok := cat.Template("new_listing", "en")
	require.True(t, ok)
	assert.Equal(t, "Hello {first_name}", tpl.Body)
	_, ok = cat.Template("open_house", "en")
	assert.True(t, ok)
	_, ok = cat.Template("new_listing", "he")
	assert.True(t, ok)
	assert.Equal(t, "there", cat.PhrasesFor("fr").FirstName)
}

func TestLoadCatalogRejectsUnknownTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  - name: bad
    locale: en
    body: "Hi {nickname}"
`), 0o600))
	_, err := LoadCatalog(path)
	assert.ErrorContains(t, err, "{nickname}")
}
