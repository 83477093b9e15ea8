package circuitbreaker

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the circuit breaker state.
type State int

const (
	// StateClosed allows calls through (normal operation).
	StateClosed State = iota
	// StateOpen rejects calls immediately.
	StateOpen
	// StateHalfOpen allows a limited number of trial probes through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpen:
		return "Open"
	case StateHalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

// Config holds the tunables of one breaker instance.
type Config struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker from Closed to Open.
	FailureThreshold int

	// CooldownPeriod is how long the breaker stays Open before the next
	// state query moves it to HalfOpen.
	CooldownPeriod time.Duration

	// HalfOpenMaxAttempts is the number of trial probes allowed through
	// while HalfOpen.
	HalfOpenMaxAttempts int

	// OnStateChange, if set, is called on every state transition.
	OnStateChange func(from, to State)
}

// DefaultConfig returns the default breaker configuration.
func DefaultConfig() *Config {
	return &Config{
		FailureThreshold:    3,
		CooldownPeriod:      30 * time.Second,
		HalfOpenMaxAttempts: 1,
	}
}

// OpenError is returned when a call is rejected without being attempted.
// It is distinguishable from a genuine downstream failure so callers can
// apply different handling (skip-and-continue vs. retry-with-backoff).
type OpenError struct {
	// Circuit is the dependency name of the rejecting breaker.
	Circuit string
	// State is the breaker state at rejection time (Open, or HalfOpen
	// when the probe budget is exhausted).
	State State
	// Remaining is the cooldown left before the breaker will probe
	// again, floored at zero.
	Remaining time.Duration
}

func (e *OpenError) Error() string {
	if e.Remaining > 0 {
		return fmt.Sprintf("circuit %s is open: retry in %v", e.Circuit, e.Remaining.Round(time.Millisecond))
	}
	return fmt.Sprintf("circuit %s is open", e.Circuit)
}

// Snapshot is a point-in-time copy of a breaker's counters.
type Snapshot struct {
	Name                string    `json:"name"`
	State               State     `json:"state"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	TotalFailures       uint64    `json:"total_failures"`
	TotalSuccesses      uint64    `json:"total_successes"`
	OpenedAt            time.Time `json:"opened_at,omitempty"`
	HalfOpenAttempts    int       `json:"half_open_attempts"`
}

// Breaker is a per-dependency circuit breaker. All methods are safe for
// concurrent use; a single mutex guards state transitions and counters.
type Breaker struct {
	name   string
	config *Config
	logger *zap.Logger
	now    func() time.Time

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	totalFailures       uint64
	totalSuccesses      uint64
	openedAt            time.Time
	halfOpenAttempts    int
	openLogged          bool
}

// New creates a breaker for the named dependency. A nil config or
// non-positive fields fall back to defaults.
func New(name string, config *Config, logger *zap.Logger) *Breaker {
	if config == nil {
		config = DefaultConfig()
	}
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 3
	}
	if config.CooldownPeriod <= 0 {
		config.CooldownPeriod = 30 * time.Second
	}
	if config.HalfOpenMaxAttempts <= 0 {
		config.HalfOpenMaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Breaker{
		name:   name,
		config: config,
		logger: logger.With(zap.String("circuit", name)),
		now:    time.Now,
		state:  StateClosed,
	}
}

// Name returns the dependency name the breaker guards.
func (b *Breaker) Name() string { return b.name }

// Execute runs fn if the breaker admits the call. A rejected call returns
// an *OpenError and fn is never invoked. When fn runs, its error is
// recorded and re-returned unchanged; the breaker never transforms the
// underlying failure.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	if err := b.admit(); err != nil {
		return nil, err
	}

	result, err := fn()
	if err != nil {
		b.RecordFailure(err)
		return nil, err
	}
	b.RecordSuccess()
	return result, nil
}

// admit decides whether a call may proceed, resolving the lazy
// Open -> HalfOpen transition first.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.evaluate(now)

	switch b.state {
	case StateClosed:
		return nil

	case StateOpen:
		remaining := b.remainingLocked(now)
		// Throttle to one log line per open period; Remaining is still
		// freshly computed for every rejection.
		if !b.openLogged {
			b.openLogged = true
			b.logger.Warn("circuit open, rejecting calls",
				zap.Duration("remaining_cooldown", remaining))
		}
		return &OpenError{Circuit: b.name, State: StateOpen, Remaining: remaining}

	case StateHalfOpen:
		if b.halfOpenAttempts >= b.config.HalfOpenMaxAttempts {
			return &OpenError{Circuit: b.name, State: StateHalfOpen}
		}
		b.halfOpenAttempts++
		return nil

	default:
		return fmt.Errorf("unknown circuit state: %v", b.state)
	}
}

// evaluate resolves the lazy Open -> HalfOpen transition. It is the only
// place that transition occurs. Caller must hold b.mu.
func (b *Breaker) evaluate(now time.Time) {
	if b.state != StateOpen {
		return
	}
	if now.Sub(b.openedAt) >= b.config.CooldownPeriod {
		b.setState(StateHalfOpen)
		b.halfOpenAttempts = 0
		b.logger.Info("circuit half-open, probing for recovery")
	}
}

// remainingLocked computes the cooldown left, floored at zero.
// Caller must hold b.mu.
func (b *Breaker) remainingLocked(now time.Time) time.Duration {
	remaining := b.config.CooldownPeriod - now.Sub(b.openedAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// RecordSuccess records a successful call. Usable independently of
// Execute for call sites that manage their own invocation.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalSuccesses++

	switch b.state {
	case StateClosed:
		b.consecutiveFailures = 0

	case StateHalfOpen:
		b.logger.Info("circuit recovered",
			zap.Int("half_open_attempts", b.halfOpenAttempts))
		b.setState(StateClosed)
		b.consecutiveFailures = 0
		b.halfOpenAttempts = 0

	case StateOpen:
		b.logger.Warn("success recorded while circuit open")
	}
}

// RecordFailure records a failed call.
func (b *Breaker) RecordFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalFailures++
	b.consecutiveFailures++

	switch b.state {
	case StateClosed:
		if b.consecutiveFailures >= b.config.FailureThreshold {
			b.logger.Warn("circuit opened",
				zap.Int("consecutive_failures", b.consecutiveFailures),
				zap.Int("threshold", b.config.FailureThreshold),
				zap.Error(err))
			b.open()
		}

	case StateHalfOpen:
		// Probe failed: reopen with a fresh cooldown.
		b.logger.Warn("probe failed, circuit reopened",
			zap.Int("half_open_attempts", b.halfOpenAttempts),
			zap.Error(err))
		b.open()
		b.halfOpenAttempts = 0

	case StateOpen:
		b.logger.Warn("failure recorded while circuit open", zap.Error(err))
	}
}

// open transitions to Open and stamps openedAt. Caller must hold b.mu.
func (b *Breaker) open() {
	b.setState(StateOpen)
	b.openedAt = b.now()
	b.openLogged = false
}

// setState changes state and fires the transition callback.
// Caller must hold b.mu.
func (b *Breaker) setState(newState State) {
	oldState := b.state
	b.state = newState

	if b.config.OnStateChange != nil && oldState != newState {
		go b.config.OnStateChange(oldState, newState)
	}
}

// State returns the current state, resolving the lazy Open -> HalfOpen
// transition as a side effect.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.evaluate(b.now())
	return b.state
}

// Snapshot returns a copy of the breaker's counters without advancing
// the lazy transition.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Name:                b.name,
		State:               b.state,
		ConsecutiveFailures: b.consecutiveFailures,
		TotalFailures:       b.totalFailures,
		TotalSuccesses:      b.totalSuccesses,
		OpenedAt:            b.openedAt,
		HalfOpenAttempts:    b.halfOpenAttempts,
	}
}

// Reset forces the breaker to Closed and zeroes all counters. Used for
// test isolation and manual operator recovery.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	oldState := b.state
	b.state = StateClosed
	b.consecutiveFailures = 0
	b.totalFailures = 0
	b.totalSuccesses = 0
	b.halfOpenAttempts = 0
	b.openedAt = time.Time{}
	b.openLogged = false

	b.logger.Info("circuit reset", zap.String("from_state", oldState.String()))

	if b.config.OnStateChange != nil && oldState != StateClosed {
		go b.config.OnStateChange(oldState, StateClosed)
	}
}
