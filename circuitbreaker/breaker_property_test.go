package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"pgregory.net/rapid"
)

// TestProperty_Breaker_ThresholdBoundary checks that for any failure run
// shorter than the threshold the breaker stays Closed, and that exactly
// the threshold-th consecutive failure opens it.
func TestProperty_Breaker_ThresholdBoundary(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		threshold := rapid.IntRange(1, 20).Draw(rt, "threshold")
		failures := rapid.IntRange(0, threshold-1).Draw(rt, "failures")

		b := New("dep", &Config{FailureThreshold: threshold, CooldownPeriod: time.Hour}, zap.NewNop())

		for i := 0; i < failures; i++ {
			b.RecordFailure(errors.New("fail"))
		}
		if b.State() != StateClosed {
			rt.Fatalf("breaker opened after %d failures, threshold %d", failures, threshold)
		}

		for i := failures; i < threshold; i++ {
			b.RecordFailure(errors.New("fail"))
		}
		if b.State() != StateOpen {
			rt.Fatalf("breaker still closed after %d consecutive failures", threshold)
		}
	})
}

// TestProperty_Breaker_SuccessBreaksRun checks that a success anywhere in
// a failure run resets the consecutive count, so interleaved sequences
// never open the breaker as long as no unbroken run reaches the threshold.
func TestProperty_Breaker_SuccessBreaksRun(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		threshold := rapid.IntRange(2, 10).Draw(rt, "threshold")
		rounds := rapid.IntRange(1, 50).Draw(rt, "rounds")

		b := New("dep", &Config{FailureThreshold: threshold, CooldownPeriod: time.Hour}, zap.NewNop())

		for i := 0; i < rounds; i++ {
			run := rapid.IntRange(0, threshold-1).Draw(rt, "run")
			for j := 0; j < run; j++ {
				b.RecordFailure(errors.New("fail"))
			}
			b.RecordSuccess()
		}

		if b.State() != StateClosed {
			rt.Fatalf("breaker opened although no run reached threshold %d", threshold)
		}
	})
}

// TestProperty_Breaker_RemainingCooldownNeverNegative checks that the
// remaining cooldown reported by a rejection is always within
// [0, CooldownPeriod] no matter how far time has advanced.
func TestProperty_Breaker_RemainingCooldownNeverNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cooldown := time.Duration(rapid.IntRange(1, 60).Draw(rt, "cooldownSec")) * time.Second
		elapsed := time.Duration(rapid.IntRange(0, 59).Draw(rt, "elapsedSec")) * time.Second
		if elapsed >= cooldown {
			// Past the cooldown the breaker half-opens instead of rejecting.
			return
		}

		b, clock := newTestBreaker(&Config{FailureThreshold: 1, CooldownPeriod: cooldown})
		_, _ = b.Execute(func() (any, error) { return nil, errors.New("fail") })

		clock.Advance(elapsed)
		_, err := b.Execute(func() (any, error) { return nil, nil })

		var openErr *OpenError
		if !errors.As(err, &openErr) {
			rt.Fatalf("expected OpenError, got %v", err)
		}
		if openErr.Remaining < 0 || openErr.Remaining > cooldown {
			rt.Fatalf("remaining %v out of range [0, %v]", openErr.Remaining, cooldown)
		}
		if want := cooldown - elapsed; openErr.Remaining != want {
			rt.Fatalf("remaining = %v, want %v", openErr.Remaining, want)
		}
	})
}
