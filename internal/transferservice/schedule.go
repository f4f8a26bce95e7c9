package transferservice

import (
	"context"
	"fmt"
	"time"

	"github.com/go-petr/lynx-wire/internal/domain"
	"github.com/go-petr/lynx-wire/pkg/configpkg"
	"github.com/go-petr/lynx-wire/pkg/randompkg"
)

// Delayer models the clearing latency between two stages of a transfer.
type Delayer interface {
	Wait(ctx context.Context) error
}

// JitterDelayer waits Delay plus a random share of Jitter.
type JitterDelayer struct {
	Delay  time.Duration
	Jitter time.Duration
}

// Wait blocks for the stage delay or until ctx is done.
func (d JitterDelayer) Wait(ctx context.Context) error {
	dur := d.Delay
	if d.Jitter > 0 {
		dur += time.Duration(randompkg.Intn(int(d.Jitter)))
	}

	if dur <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(dur)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoDelay advances stages immediately.
type NoDelay struct{}

// Wait returns at once unless ctx is already done.
func (NoDelay) Wait(ctx context.Context) error {
	return ctx.Err()
}

// CancelPolicy decides whether a transfer is cancelled by the simulated
// operator before it claims settlement.
type CancelPolicy interface {
	ShouldCancel(t domain.Transfer) bool
}

// ManualCancel never cancels on its own. Cancellations only come from Service.Cancel.
type ManualCancel struct{}

// ShouldCancel always returns false.
func (ManualCancel) ShouldCancel(domain.Transfer) bool {
	return false
}

// RandomCancel cancels the given share of transfers.
type RandomCancel struct {
	Rate float64
}

// ShouldCancel draws against the cancellation rate.
func (p RandomCancel) ShouldCancel(domain.Transfer) bool {
	return p.Rate > 0 && randompkg.Float64() < p.Rate
}

// NewCancelPolicy returns the policy configured by name.
func NewCancelPolicy(name string, rate float64) (CancelPolicy, error) {
	switch name {
	case "", configpkg.CancellationManual:
		return ManualCancel{}, nil
	case configpkg.CancellationRandom:
		if rate < 0 || rate > 1 {
			return nil, fmt.Errorf("cancellation rate %v out of [0, 1]", rate)
		}

		return RandomCancel{Rate: rate}, nil
	}

	return nil, fmt.Errorf("unknown cancellation policy %q", name)
}
