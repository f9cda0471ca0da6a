package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerage_backend/internal/matching/domain"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

func apartment(price int64, area string, rooms float64) domain.Property {
	return domain.Property{
		ID:           uuid.New(),
		Category:     "residential",
		PropertyType: "apartment",
		ListingType:  "sale",
		Price:        i64(price),
		Rooms:        f64(rooms),
		Area:         area,
	}
}

func buyer(budget int64, area string, rooms float64) domain.Client {
	return domain.Client{
		ID:                    uuid.New(),
		PreferredPropertyType: "apartment",
		RequestType:           "buy",
		Budget:                i64(budget),
		PreferredRooms:        f64(rooms),
		Area:                  area,
	}
}

func asStored(in []domain.NewMatch) []domain.Match {
	out := make([]domain.Match, len(in))
	for i, m := range in {
		out[i] = domain.Match{ID: uuid.New(), PropertyID: m.PropertyID, ClientID: m.ClientID, Score: m.Score, Status: domain.MatchStatusMatched}
	}
	return out
}

func TestGenerateIdenticalPairScoresHigh(t *testing.T) {
	p := apartment(1_000_000, "X", 3)
	c := buyer(1_100_000, "X", 3)

	got := Generate([]domain.Property{p}, []domain.Client{c}, nil, domain.CategoryResidential)

	require.Len(t, got, 1)
	assert.Equal(t, p.ID, got[0].PropertyID)
	assert.Equal(t, c.ID, got[0].ClientID)
	assert.GreaterOrEqual(t, got[0].Score, 85)
	assert.Equal(t, domain.CategoryResidential, got[0].Category)
}

func TestGenerateBudgetSlightlyUnderPrice(t *testing.T) {
	p := apartment(1_000_000, "X", 3)
	near := buyer(910_000, "X", 3)
	far := buyer(800_000, "Y", 3)

	got := Generate([]domain.Property{p}, []domain.Client{near, far}, nil, domain.CategoryResidential)

	require.Len(t, got, 1)
	assert.Equal(t, near.ID, got[0].ClientID)
	assert.Equal(t, 78, got[0].Score)
}

func TestGenerateIsIdempotent(t *testing.T) {
	props := []domain.Property{apartment(1_000_000, "X", 3), apartment(900_000, "X", 4), apartment(2_000_000, "Y", 5)}
	clients := []domain.Client{buyer(1_100_000, "X", 3), buyer(950_000, "X", 4)}

	first := Generate(props, clients, nil, domain.CategoryResidential)
	require.NotEmpty(t, first)

	second := Generate(props, clients, asStored(first), domain.CategoryResidential)
	assert.Empty(t, second)
}

func TestGenerateNeverDuplicatesPairs(t *testing.T) {
	p := apartment(1_000_000, "X", 3)
	c := buyer(1_100_000, "X", 3)
	other := buyer(1_050_000, "X", 3)
	existing := []domain.Match{{ID: uuid.New(), PropertyID: p.ID, ClientID: c.ID, Status: domain.MatchStatusNotRelevant}}

	// The same records appearing twice in a pool must not yield two matches.
	got := Generate([]domain.Property{p, p}, []domain.Client{c, other, other}, existing, domain.CategoryResidential)

	keys := map[domain.PairKey]int{}
	for _, m := range existing {
		keys[m.Key()]++
	}
	for _, m := range got {
		keys[m.Key()]++
	}
	for k, n := range keys {
		assert.Equal(t, 1, n, "pair %v", k)
	}
	require.Len(t, got, 1)
	assert.Equal(t, other.ID, got[0].ClientID)
}

func TestGenerateRespectsScoreFloor(t *testing.T) {
	props := []domain.Property{
		apartment(1_000_000, "X", 3),
		apartment(3_000_000, "Z", 7),
		apartment(500_000, "Y", 2),
	}
	clients := []domain.Client{
		buyer(1_100_000, "X", 3),
		buyer(400_000, "Q", 6),
		buyer(5_000_000, "Y", 2),
	}

	for _, m := range Generate(props, clients, nil, domain.CategoryResidential) {
		assert.GreaterOrEqual(t, m.Score, MinScore)
	}
}

func TestGenerateSkipsOtherCategoryAndUnclassified(t *testing.T) {
	office := domain.Property{ID: uuid.New(), Category: "משרדים", PropertyType: "משרד", Price: i64(1_000_000), Area: "X", Rooms: f64(3)}
	untagged := apartment(1_000_000, "X", 3)
	untagged.Category = ""
	noType := buyer(1_100_000, "X", 3)
	noType.PreferredPropertyType = ""

	got := Generate([]domain.Property{office, untagged}, []domain.Client{buyer(1_100_000, "X", 3), noType}, nil, domain.CategoryResidential)
	assert.Empty(t, got)

	assert.Nil(t, Generate([]domain.Property{office}, nil, nil, domain.CategoryNone))
}

func TestGenerateSkipsIncompatibleListingType(t *testing.T) {
	p := apartment(1_000_000, "X", 3)
	c := buyer(1_100_000, "X", 3)
	c.RequestType = "rent"
	assert.Empty(t, Generate([]domain.Property{p}, []domain.Client{c}, nil, domain.CategoryResidential))

	c.RequestType = ""
	assert.Len(t, Generate([]domain.Property{p}, []domain.Client{c}, nil, domain.CategoryResidential), 1)
}

func TestGenerateCommercialWithHebrewTags(t *testing.T) {
	p := domain.Property{ID: uuid.New(), Category: "מסחרי", PropertyType: "משרד", ListingType: "השכרה", Price: i64(20_000), Area: "Center", Rooms: f64(4)}
	c := domain.Client{ID: uuid.New(), PreferredPropertyType: "office", RequestType: "שכירות", Budget: i64(21_000), Area: "center", PreferredRooms: f64(4)}

	got := Generate([]domain.Property{p}, []domain.Client{c}, nil, domain.CategoryCommercial)
	require.Len(t, got, 1)
	assert.Equal(t, 100, got[0].Score)
}

func TestExplainBudgetBands(t *testing.T) {
	cases := []struct {
		price, budget int64
		want          int
	}{
		{1_000_000, 1_000_000, 30},
		{1_000_000, 1_150_000, 30},
		{1_000_000, 1_250_000, 24},
		{1_000_000, 1_500_000, 18},
		{1_000_000, 3_000_000, 12},
		{1_000_000, 960_000, 15},
		{1_000_000, 920_000, 8},
		{1_000_000, 800_000, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, budgetScore(i64(tc.price), i64(tc.budget)), "price %d budget %d", tc.price, tc.budget)
	}
	assert.Equal(t, unknownBudgetScore, budgetScore(nil, i64(1)))
}

func TestExplainRooms(t *testing.T) {
	c := domain.Client{RoomsMin: f64(3), RoomsMax: f64(4)}
	assert.Equal(t, maxRoomsScore, roomsScore(f64(3.5), c))
	assert.Equal(t, adjacentRoomsScore, roomsScore(f64(5), c))
	assert.Equal(t, 0, roomsScore(f64(6), c))
	assert.Equal(t, unknownRoomsScore, roomsScore(nil, c))

	pref := domain.Client{PreferredRooms: f64(3)}
	assert.Equal(t, maxRoomsScore, roomsScore(f64(3), pref))
	assert.Equal(t, adjacentRoomsScore, roomsScore(f64(4), pref))
	assert.Equal(t, 0, roomsScore(f64(5), pref))
}

func TestExplainTypeAndArea(t *testing.T) {
	p := apartment(1, "North", 3)
	p.City = "Haifa"

	c := buyer(1, "north", 3)
	assert.Equal(t, maxTypeScore, Explain(p, c).Type)
	assert.Equal(t, maxAreaScore, Explain(p, c).Area)

	c.PreferredPropertyType = "בית פרטי"
	assert.Equal(t, sameCategoryTypeScore, Explain(p, c).Type)

	c.Area, c.City = "South", "haifa"
	assert.Equal(t, cityOnlyScore, Explain(p, c).Area)

	c.Area, c.City = "", ""
	assert.Equal(t, unknownAreaScore, Explain(p, c).Area)
}

func TestFilterMatches(t *testing.T) {
	p := apartment(1_000_000, "X", 3)
	c := buyer(1_100_000, "X", 3)
	rentClient := buyer(1_100_000, "X", 3)
	rentClient.RequestType = "rent"

	matches := []domain.Match{
		{ID: uuid.New(), PropertyID: p.ID, ClientID: c.ID},
		{ID: uuid.New(), PropertyID: p.ID, ClientID: rentClient.ID},
		{ID: uuid.New(), PropertyID: uuid.New(), ClientID: c.ID},
		{ID: uuid.New(), PropertyID: p.ID, ClientID: uuid.New()},
	}
	props := []domain.Property{p}
	clients := []domain.Client{c, rentClient}

	got := FilterMatches(matches, props, clients, domain.CategoryResidential, FilterOptions{})
	require.Len(t, got, 1)
	assert.Equal(t, matches[0].ID, got[0].ID)

	loose := FilterMatches(matches, props, clients, domain.CategoryResidential, FilterOptions{SkipListingCheck: true})
	assert.Len(t, loose, 2)

	assert.Empty(t, FilterMatches(matches, props, clients, domain.CategoryCommercial, FilterOptions{}))
}
