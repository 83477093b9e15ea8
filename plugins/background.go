package plugins

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/toolmesh/types"
)

// StartBackgroundDiscovery begins re-attempting pending plugins every
// BackgroundInterval until the pending set empties or BackgroundWindow
// elapses. Calling it while a loop is already running is a no-op.
func (m *Manager) StartBackgroundDiscovery() {
	m.bgMu.Lock()
	defer m.bgMu.Unlock()

	if m.bgCancel != nil {
		return
	}
	if len(m.PendingPlugins()) == 0 {
		m.logger.Debug("no pending plugins, background discovery not started")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.bgCancel = cancel
	m.bgDeadline = time.Now().Add(m.config.BackgroundWindow)

	m.logger.Info("background discovery started",
		zap.Duration("interval", m.config.BackgroundInterval),
		zap.Duration("window", m.config.BackgroundWindow),
		zap.Strings("pending", m.PendingPlugins()))

	go m.backgroundLoop(ctx, m.bgDeadline)
}

// StopBackgroundDiscovery cancels the retry loop. Safe to call at any
// time, including from a discovery callback inside the running tick; no
// further tick is scheduled after cancellation.
func (m *Manager) StopBackgroundDiscovery() {
	m.bgMu.Lock()
	defer m.bgMu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.bgCancel == nil {
		return
	}
	m.bgCancel()
	m.bgCancel = nil
	m.logger.Info("background discovery stopped")
}

// BackgroundActive reports whether the retry loop is currently running.
func (m *Manager) BackgroundActive() bool {
	m.bgMu.Lock()
	defer m.bgMu.Unlock()
	return m.bgCancel != nil
}

// backgroundLoop runs ticks strictly sequentially: a tick fully
// completes, including callback notification, before the next one is
// scheduled.
func (m *Manager) backgroundLoop(ctx context.Context, deadline time.Time) {
	ticker := time.NewTicker(m.config.BackgroundInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case now := <-ticker.C:
			if now.After(deadline) {
				m.logger.Warn("background discovery window elapsed, giving up",
					zap.Strings("still_pending", m.PendingPlugins()))
				m.StopBackgroundDiscovery()
				return
			}

			m.backgroundTick(ctx)

			if ctx.Err() != nil {
				// Stopped from within the tick (e.g. by a callback).
				return
			}
			if len(m.PendingPlugins()) == 0 {
				m.logger.Info("all pending plugins discovered")
				m.StopBackgroundDiscovery()
				return
			}
		}
	}
}

// backgroundTick re-attempts quick discovery for every still-pending
// plugin and notifies callbacks for each success.
func (m *Manager) backgroundTick(ctx context.Context) {
	m.mu.RLock()
	pending := make([]types.PluginConfig, 0, len(m.pending))
	for _, cfg := range m.pending {
		pending = append(pending, cfg)
	}
	callbacks := make([]DiscoveryCallback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.RUnlock()

	for _, cfg := range pending {
		if ctx.Err() != nil {
			return
		}

		if err := m.discoverOne(ctx, cfg); err != nil {
			m.logger.Debug("background discovery attempt failed",
				zap.String("plugin", cfg.Name),
				zap.Error(err))
			continue
		}

		m.mu.RLock()
		dp := m.discovered[cfg.Name]
		m.mu.RUnlock()

		m.logger.Info("plugin discovered in background",
			zap.String("plugin", cfg.Name))
		for _, cb := range callbacks {
			cb(dp)
		}
	}
}
