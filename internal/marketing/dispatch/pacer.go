package dispatch

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer suspends the dispatcher between two leads.
type Pacer interface {
	Wait(ctx context.Context) error
}

// RandomPacer waits Min plus a uniformly random share of Jitter, so the gap
// between messages is never zero and differs from one lead to the next.
type RandomPacer struct {
	Min    time.Duration
	Jitter time.Duration
	// Intn returns a value in [0, n). Defaults to math/rand/v2.
	Intn func(n int64) int64
}

const (
	DefaultMinDelay = 2 * time.Second
	DefaultJitter   = 8 * time.Second
)

func NewRandomPacer(min, jitter time.Duration) *RandomPacer {
	if min <= 0 {
		min = DefaultMinDelay
	}
	if jitter <= 0 {
		jitter = DefaultJitter
	}
	return &RandomPacer{Min: min, Jitter: jitter}
}

// Next returns the delay the next Wait will use. Non-positive Min or Jitter
// fall back to the defaults.
func (p *RandomPacer) Next() time.Duration {
	minDelay, jitter := p.Min, p.Jitter
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	if jitter <= 0 {
		jitter = DefaultJitter
	}
	intn := p.Intn
	if intn == nil {
		intn = rand.Int64N
	}
	return minDelay + time.Duration(intn(int64(jitter)))
}

func (p *RandomPacer) Wait(ctx context.Context) error {
	timer := time.NewTimer(p.Next())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
