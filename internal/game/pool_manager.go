package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SnapshotStore persists area snapshots and shot histories.
type SnapshotStore interface {
	SaveArea(ctx context.Context, model PoolGameAreaModel) error
	// LoadArea returns ErrAreaNotFound when nothing is stored under id.
	LoadArea(ctx context.Context, id string) (PoolGameAreaModel, error)
	SaveHistory(ctx context.Context, history ShotHistory) error
}

// WinRecorder is told about every finished game.
type WinRecorder interface {
	RecordWin(ctx context.Context, winnerID, loserID string) error
}

const (
	// writeTimeout bounds each background write.
	writeTimeout = 5 * time.Second
	writeQueue   = 256
)

// AreaManager owns the live pool game areas of a server. Persistence and win
// recording run in order on a background writer and never touch game state.
type AreaManager struct {
	mu    sync.RWMutex
	areas map[string]*PoolGameArea
	// pins counts long-lived holders per area, such as websocket connections.
	// A pinned area is never evicted.
	pins  map[string]int

	store    SnapshotStore
	recorder WinRecorder
	logger   *zap.Logger
	opts     []Option

	qmu    sync.RWMutex
	closed bool
	writes chan func(context.Context)
	done   chan struct{}
}

// NewAreaManager creates a manager. store and recorder may be nil. opts are
// applied to every area the manager creates or restores.
func NewAreaManager(store SnapshotStore, recorder WinRecorder, logger *zap.Logger, opts ...Option) *AreaManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &AreaManager{
		areas:    make(map[string]*PoolGameArea),
		pins:     make(map[string]int),
		store:    store,
		recorder: recorder,
		logger:   logger,
		opts:     opts,
		writes:   make(chan func(context.Context), writeQueue),
		done:     make(chan struct{}),
	}
	go m.writer()
	return m
}

func (m *AreaManager) areaOptions() []Option {
	opts := make([]Option, 0, len(m.opts)+1)
	opts = append(opts, WithLogger(m.logger))
	return append(opts, m.opts...)
}

// CreateArea registers a new area for a map rectangle. An unnamed rectangle
// gets a generated id.
func (m *AreaManager) CreateArea(ctx context.Context, obj MapObject) (*PoolGameArea, error) {
	if obj.Name == "" {
		obj.Name = uuid.NewString()
	}
	area, err := NewPoolGameAreaFromMapObject(obj, m.areaOptions()...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if _, ok := m.areas[area.ID()]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAreaExists, area.ID())
	}
	m.areas[area.ID()] = area
	m.mu.Unlock()

	m.watch(area)
	m.persist(area.ToModel())
	m.logger.Info("area created", zap.String("area", area.ID()))
	return area, nil
}

// Area returns a live area, restoring it from the store if needed.
func (m *AreaManager) Area(ctx context.Context, id string) (*PoolGameArea, error) {
	m.mu.RLock()
	area, ok := m.areas[id]
	m.mu.RUnlock()
	if ok {
		return area, nil
	}
	if m.store == nil {
		return nil, ErrAreaNotFound
	}

	model, err := m.store.LoadArea(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAreaNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load area %s: %w", id, err)
	}
	restored, err := NewPoolGameArea(model, BoundingBox{}, m.areaOptions()...)
	if err != nil {
		return nil, fmt.Errorf("restore area %s: %w", id, err)
	}

	m.mu.Lock()
	if existing, ok := m.areas[id]; ok {
		// Another caller restored it first.
		m.mu.Unlock()
		return existing, nil
	}
	m.areas[id] = restored
	m.mu.Unlock()

	m.watch(restored)
	m.logger.Info("area restored", zap.String("area", id))
	return restored, nil
}

// Acquire returns a live area pinned against eviction. Callers that keep the
// area beyond a single request use it instead of Area and call release when
// done, so every holder shares the one live instance.
func (m *AreaManager) Acquire(ctx context.Context, id string) (area *PoolGameArea, release func(), err error) {
	for {
		area, err = m.Area(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		m.mu.Lock()
		if m.areas[id] == area {
			m.pins[id]++
			m.mu.Unlock()
			break
		}
		// Evicted between the lookup and the pin.
		m.mu.Unlock()
	}

	var once sync.Once
	release = func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.pins[id] <= 1 {
				delete(m.pins, id)
				return
			}
			m.pins[id]--
		})
	}
	return area, release, nil
}

// AreaIDs lists live areas in id order.
func (m *AreaManager) AreaIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.areas))
	for id := range m.areas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *AreaManager) watch(area *PoolGameArea) {
	ev := area.Events()
	ev.AreaChanged.Subscribe(m.persist)
	ev.HistoryUpdated.Subscribe(m.persistHistory)
	ev.GameOver.Subscribe(m.recordWin)
}

func (m *AreaManager) persist(model PoolGameAreaModel) {
	if m.store == nil {
		return
	}
	m.background(func(ctx context.Context) {
		if err := m.store.SaveArea(ctx, model); err != nil {
			m.logger.Error("failed to save area", zap.String("area", model.ID), zap.Error(err))
		}
	})
}

func (m *AreaManager) persistHistory(h ShotHistory) {
	if m.store == nil {
		return
	}
	m.background(func(ctx context.Context) {
		if err := m.store.SaveHistory(ctx, h); err != nil {
			m.logger.Error("failed to save shot history", zap.String("area", h.AreaID), zap.String("shot_id", h.ShotID), zap.Error(err))
		}
	})
}

func (m *AreaManager) recordWin(r GameResult) {
	if m.recorder == nil || r.WinnerID == "" {
		return
	}
	m.background(func(ctx context.Context) {
		if err := m.recorder.RecordWin(ctx, r.WinnerID, r.LoserID); err != nil {
			m.logger.Error("failed to record win", zap.String("area", r.AreaID), zap.String("winner", r.WinnerID), zap.Error(err))
			return
		}
		m.logger.Info("win recorded", zap.String("area", r.AreaID), zap.String("winner", r.WinnerID), zap.String("reason", r.Reason))
	})
}

func (m *AreaManager) background(fn func(ctx context.Context)) {
	m.qmu.RLock()
	defer m.qmu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.writes <- fn:
	default:
		m.logger.Warn("write queue full, dropping write")
	}
}

func (m *AreaManager) writer() {
	defer close(m.done)
	for fn := range m.writes {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		fn(ctx)
		cancel()
	}
}

// Close finishes the queued writes and stops the writer. Areas stay usable
// but nothing more is persisted.
func (m *AreaManager) Close() {
	m.qmu.Lock()
	if !m.closed {
		m.closed = true
		close(m.writes)
	}
	m.qmu.Unlock()
	<-m.done
}
