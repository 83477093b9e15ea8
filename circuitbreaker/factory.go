package circuitbreaker

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Factory creates and caches breakers keyed by dependency name, so
// unrelated call sites sharing a dependency share one breaker instance
// and one set of counters. Construct a Factory explicitly and pass it to
// whatever needs it; breakers live for the lifetime of the factory.
type Factory struct {
	defaults *Config
	logger   *zap.Logger

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewFactory creates a factory whose breakers use the given defaults.
// A nil config uses DefaultConfig.
func NewFactory(defaults *Config, logger *zap.Logger) *Factory {
	if defaults == nil {
		defaults = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		defaults: defaults,
		logger:   logger,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for the named dependency, creating it with the
// factory defaults on first use.
func (f *Factory) Get(name string) *Breaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	if b, ok := f.breakers[name]; ok {
		return b
	}

	cfg := *f.defaults
	b := New(name, &cfg, f.logger)
	f.breakers[name] = b
	return b
}

// GetWithConfig returns the breaker for the named dependency, creating it
// with the given per-instance config on first use. An existing breaker is
// returned as-is; the config of a live breaker is never swapped.
func (f *Factory) GetWithConfig(name string, config *Config) *Breaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	if b, ok := f.breakers[name]; ok {
		return b
	}

	b := New(name, config, f.logger)
	f.breakers[name] = b
	return b
}

// Names returns the names of all created breakers, sorted.
func (f *Factory) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.breakers))
	for name := range f.breakers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshots returns a snapshot of every created breaker, sorted by name.
func (f *Factory) Snapshots() []Snapshot {
	f.mu.Lock()
	breakers := make([]*Breaker, 0, len(f.breakers))
	for _, b := range f.breakers {
		breakers = append(breakers, b)
	}
	f.mu.Unlock()

	snaps := make([]Snapshot, 0, len(breakers))
	for _, b := range breakers {
		snaps = append(snaps, b.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Name < snaps[j].Name })
	return snaps
}

// ResetAll resets every created breaker to Closed.
func (f *Factory) ResetAll() {
	f.mu.Lock()
	breakers := make([]*Breaker, 0, len(f.breakers))
	for _, b := range f.breakers {
		breakers = append(breakers, b)
	}
	f.mu.Unlock()

	for _, b := range breakers {
		b.Reset()
	}
}
