package game

import "sync"

// Signal is a typed notification channel with any number of subscribers.
type Signal[T any] struct {
	mu       sync.RWMutex
	next     int
	handlers []handler[T]
}

type handler[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a func that removes it again.
func (s *Signal[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.handlers = append(s.handlers, handler[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, h := range s.handlers {
				if h.id == id {
					s.handlers = append(s.handlers[:i:i], s.handlers[i+1:]...)
					return
				}
			}
		})
	}
}

// emit calls subscribers in subscription order. Never call it with the area lock held.
func (s *Signal[T]) emit(v T) {
	s.mu.RLock()
	hs := s.handlers
	s.mu.RUnlock()

	for _, h := range hs {
		h.fn(v)
	}
}

// TickUpdate carries the table mid-shot.
type TickUpdate struct {
	AreaID string            `json:"areaID"`
	ShotID string            `json:"shotID"`
	Tick   int               `json:"tick"`
	Model  PoolGameAreaModel `json:"model"`
}

// TurnChange announces who shoots next.
type TurnChange struct {
	AreaID         string `json:"areaID"`
	PlayerIDToMove string `json:"playerIDToMove,omitempty"`
	IsPlayer1Turn  bool   `json:"isPlayer1Turn"`
}

// BallPlacement asks PlayerID to put the cue ball down.
type BallPlacement struct {
	AreaID   string `json:"areaID"`
	PlayerID string `json:"playerID,omitempty"`
}

// GameResult is sent once when a game ends.
type GameResult struct {
	AreaID        string `json:"areaID"`
	WinnerID      string `json:"winnerID,omitempty"`
	LoserID       string `json:"loserID,omitempty"`
	DidPlayer1Win bool   `json:"didPlayer1Win"`
	Reason        string `json:"reason"`
}

// ShotHistory is every recorded frame of one shot, in order.
type ShotHistory struct {
	AreaID string              `json:"areaID" msgpack:"area"`
	ShotID string              `json:"shotID" msgpack:"shot"`
	Frames []PoolGameAreaModel `json:"frames" msgpack:"frames"`
}

// Events groups the signals an area raises.
type Events struct {
	Tick                  Signal[TickUpdate]
	TurnChanged           Signal[TurnChange]
	BallPlacementRequired Signal[BallPlacement]
	GameOver              Signal[GameResult]
	HistoryUpdated        Signal[ShotHistory]
	AreaChanged           Signal[PoolGameAreaModel]
}
