package game

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunIdleSweeper evicts empty areas that have been idle for maxIdle, checking
// every interval until ctx is done. Evicted areas are restored from the store
// on their next lookup, so it only runs when a store is configured.
func (m *AreaManager) RunIdleSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	if m.store == nil || interval <= 0 || maxIdle <= 0 {
		m.logger.Info("idle sweeper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	m.logger.Info("idle sweeper started", zap.Duration("interval", interval), zap.Duration("max_idle", maxIdle))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("idle sweeper stopping")
			return
		case now := <-ticker.C:
			if evicted := m.EvictIdle(now, maxIdle); len(evicted) > 0 {
				m.logger.Info("evicted idle areas", zap.Strings("areas", evicted))
			}
		}
	}
}

// EvictIdle drops every empty, unpinned area whose last activity is older than
// maxIdle and returns their ids.
func (m *AreaManager) EvictIdle(now time.Time, maxIdle time.Duration) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var evicted []string
	for id, area := range m.areas {
		if m.pins[id] > 0 || !area.Idle() || now.Sub(area.LastActivity()) < maxIdle {
			continue
		}
		delete(m.areas, id)
		evicted = append(evicted, id)
	}
	return evicted
}
