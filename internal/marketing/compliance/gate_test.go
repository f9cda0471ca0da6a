package compliance

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerage_backend/internal/marketing/domain"
	"brokerage_backend/platform/phone"
)

type dncSet struct {
	numbers map[string]bool
	err     error
	lookups []string
}

func (d *dncSet) IsDoNotCall(_ context.Context, _ uuid.UUID, normalized string) (bool, error) {
	d.lookups = append(d.lookups, normalized)
	if d.err != nil {
		return false, d.err
	}
	return d.numbers[normalized], nil
}

func TestCanContactNormalizesBeforeLookup(t *testing.T) {
	dnc := &dncSet{numbers: map[string]bool{"972500000001": true}}
	gate := NewGate(dnc, phone.NewNormalizer("IL"))
	ctx := context.Background()

	for _, raw := range []string{"050-0000001", "+972 50 000 0001", "0500000001"} {
		ok, err := gate.CanContact(ctx, uuid.New(), raw)
		require.NoError(t, err)
		assert.False(t, ok, raw)
	}

	ok, err := gate.CanContact(ctx, uuid.New(), "050-0000002")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "972500000002", dnc.lookups[len(dnc.lookups)-1])
}

func TestCheckLead(t *testing.T) {
	dnc := &dncSet{numbers: map[string]bool{"972500000001": true}}
	gate := NewGate(dnc, phone.NewNormalizer("IL"))
	ctx := context.Background()

	d, err := gate.CheckLead(ctx, domain.Lead{PhoneNumber: "0500000009"})
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = gate.CheckLead(ctx, domain.Lead{PhoneNumber: "0500000009", OptOutWhatsApp: true})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, domain.ExclusionOptedOut, d.Reason)

	d, err = gate.CheckLead(ctx, domain.Lead{PhoneNumber: "050-0000001"})
	require.NoError(t, err)
	assert.Equal(t, domain.ExclusionDoNotCall, d.Reason)

	allowed, err := gate.CanContactLead(ctx, domain.Lead{PhoneNumber: "050-0000001", OptOutWhatsApp: true})
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheckLeadPropagatesLookupFailure(t *testing.T) {
	gate := NewGate(&dncSet{err: errors.New("db down")}, phone.NewNormalizer("IL"))
	d, err := gate.CheckLead(context.Background(), domain.Lead{PhoneNumber: "0500000009"})
	require.Error(t, err)
	assert.False(t, d.Allowed)
}
