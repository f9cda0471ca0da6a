package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeReplacesTrunkPrefix(t *testing.T) {
	n := NewNormalizer("IL")

	cases := map[string]string{
		"050-0000001":      "972500000001",
		"050 000 0001":     "972500000001",
		"+972-50-000-0001": "972500000001",
		"972500000001":     "972500000001",
		"00972500000001":   "972500000001",
		"":                 "",
		"n/a":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, n.Normalize(in), "input %q", in)
	}
}

func TestNormalizeSameKeyForEquivalentFormats(t *testing.T) {
	n := NewNormalizer("IL")
	assert.Equal(t, n.Normalize("(050) 000-0001"), n.Normalize("+972 50 000 0001"))
}

func TestNewNormalizerFallsBackOnUnknownRegion(t *testing.T) {
	n := NewNormalizer("zz")
	assert.Equal(t, DefaultRegion, n.Region())
	assert.Equal(t, "97231234567", n.Normalize("03-1234567"))
}

func TestNewNormalizerOtherRegion(t *testing.T) {
	n := NewNormalizer("nl")
	assert.Equal(t, "31612345678", n.Normalize("06 12345678"))
	assert.Equal(t, "+31612345678", n.E164("06-12345678"))
}
