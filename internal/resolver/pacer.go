package resolver

import (
	"context"
	"math/rand/v2"
	"time"

	"isbndate/internal/providers"
)

// Pacer pauses between remote lookups.
type Pacer interface {
	Pause(ctx context.Context) error
}

// SleepPacer waits Delay plus a random share of Jitter.
type SleepPacer struct {
	Delay  time.Duration
	Jitter time.Duration
	Sleep  providers.Sleeper
}

// NewPacer returns a SleepPacer backed by providers.SleepWithContext.
func NewPacer(delay, jitter time.Duration) *SleepPacer {
	return &SleepPacer{Delay: delay, Jitter: jitter, Sleep: providers.SleepWithContext}
}

// Pause blocks until the pacing interval elapses or ctx is done.
func (p *SleepPacer) Pause(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	wait := p.Delay
	if p.Jitter > 0 {
		wait += rand.N(p.Jitter)
	}
	if wait <= 0 {
		return ctx.Err()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = providers.SleepWithContext
	}
	return sleep(ctx, wait)
}

type noPacer struct{}

func (noPacer) Pause(ctx context.Context) error { return ctx.Err() }
