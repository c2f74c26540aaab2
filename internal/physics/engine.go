package physics

import (
	"fmt"
	"math"
)

// CollisionEvent records a contact for rule checking and playback.
type CollisionEvent struct {
	Type     string  `json:"type"`      // "ball", "cushion", "pocket", "slate", "out_of_bounds"
	BallID   int     `json:"ball_id"`
	TargetID int     `json:"target_id"` // ball number, cushion index or pocket index
	Speed    float64 `json:"speed"`     // impact speed
}

const (
	CollisionBall        = "ball"
	CollisionCushion     = "cushion"
	CollisionPocket      = "pocket"
	CollisionSlate       = "slate"
	CollisionOutOfBounds = "out_of_bounds"
)

// Simulation modes.
const (
	ModeFixed = "fixed"
	ModeEvent = "event"
)

// Simulator advances a ball arena through time.
type Simulator interface {
	// Step advances dt seconds and returns the contacts that happened, in order.
	Step(dt float64) []CollisionEvent
	// InMotion reports whether any ball on the table is still moving.
	InMotion() bool
}

// NewSimulator returns the engine for mode operating on balls in place.
func NewSimulator(mode string, p *Params, table *Table, balls *[NumBalls]Ball) (Simulator, error) {
	switch mode {
	case ModeFixed, "":
		return NewEngine(p, table, balls), nil
	case ModeEvent:
		return NewEventEngine(p, table, balls), nil
	}
	return nil, fmt.Errorf("unknown simulation mode %q", mode)
}

// maxSubsteps bounds the work done for one Step however fast the balls move.
const maxSubsteps = 256

// Engine is the fixed-step simulator. Each step is split so that no ball moves
// more than half a radius at a time, which keeps balls from tunnelling through
// rails or each other.
type Engine struct {
	Params *Params
	Table  *Table
	Balls  *[NumBalls]Ball
	// SpinTransfer selects the friction-aware ball/ball resolver.
	SpinTransfer bool

	touching [NumBalls][NumBalls]bool
}

// NewEngine creates a fixed-step engine with spin transfer enabled.
func NewEngine(p *Params, table *Table, balls *[NumBalls]Ball) *Engine {
	return &Engine{Params: p, Table: table, Balls: balls, SpinTransfer: true}
}

func (e *Engine) InMotion() bool {
	return anyMoving(e.Balls)
}

func anyMoving(balls *[NumBalls]Ball) bool {
	for i := range balls {
		if balls[i].IsMoving() {
			return true
		}
	}
	return false
}

func (e *Engine) Step(dt float64) []CollisionEvent {
	events := make([]CollisionEvent, 0)
	if dt <= 0 {
		return events
	}

	maxSpeed := 0.0
	for i := range e.Balls {
		if e.Balls[i].InPlay() {
			maxSpeed = math.Max(maxSpeed, e.Balls[i].Velocity.Magnitude())
		}
	}
	n := int(math.Ceil(maxSpeed * dt / (e.Params.BallRadius / 2)))
	if n < 1 {
		n = 1
	} else if n > maxSubsteps {
		n = maxSubsteps
	}

	sub := dt / float64(n)
	for i := 0; i < n; i++ {
		events = e.substep(sub, events)
	}
	return events
}

func (e *Engine) substep(dt float64, events []CollisionEvent) []CollisionEvent {
	p := e.Params
	balls := e.Balls

	for i := range balls {
		b := &balls[i]
		if !b.InPlay() {
			continue
		}
		speed := math.Abs(b.Velocity.Z)
		if b.Tick(p, dt) {
			events = append(events, CollisionEvent{Type: CollisionSlate, BallID: i, TargetID: -1, Speed: speed})
		}
	}

	events = e.resolveBallPairs(events)

	for i := range balls {
		b := &balls[i]
		if !b.InPlay() {
			continue
		}
		if pi := e.Table.PocketAt(b.Position); pi >= 0 {
			events = append(events, CollisionEvent{Type: CollisionPocket, BallID: i, TargetID: pi, Speed: b.Velocity.Magnitude()})
			pocketBall(b)
		}
	}

	for i := range balls {
		b := &balls[i]
		if !b.InPlay() {
			continue
		}
		for ci, c := range e.Table.Cushions {
			q := c.ClosestPoint(b.Position)
			diff := b.Position.Planar().Sub(q)
			dist := diff.Magnitude()
			if dist == 0 || dist >= p.BallRadius {
				continue
			}
			normal := diff.Scale(1 / dist)
			speed := -b.Velocity.Dot(normal)
			if !p.BallCushion(b, normal) {
				continue
			}
			b.Position = b.Position.Add(normal.Scale(p.BallRadius - dist))
			events = append(events, CollisionEvent{Type: CollisionCushion, BallID: i, TargetID: ci, Speed: speed})
		}
	}

	for i := range balls {
		b := &balls[i]
		if b.InPlay() && !e.Table.InBounds(b.Position) {
			events = append(events, CollisionEvent{Type: CollisionOutOfBounds, BallID: i, TargetID: -1, Speed: b.Velocity.Magnitude()})
			b.Position = e.Table.Clamp(b.Position, p.BallRadius)
			b.Position.Z = p.BallRadius
			b.Stop()
		}
	}

	return events
}

// resolveBallPairs handles every pair in contact. A pair stays marked after
// its impulse so one contact is resolved once; the mark clears when the balls
// part or start closing again. Overlapping pairs are always pushed apart.
func (e *Engine) resolveBallPairs(events []CollisionEvent) []CollisionEvent {
	p := e.Params
	balls := e.Balls
	contact := 2 * p.BallRadius

	for i := 0; i < NumBalls; i++ {
		for j := i + 1; j < NumBalls; j++ {
			b1, b2 := &balls[i], &balls[j]
			if !b1.InPlay() || !b2.InPlay() {
				e.touching[i][j] = false
				continue
			}
			diff := b2.Position.Sub(b1.Position)
			dist := diff.Magnitude()
			if dist > contact {
				e.touching[i][j] = false
				continue
			}
			if dist > 0 && b1.Velocity.Sub(b2.Velocity).Dot(diff) > 0 {
				e.touching[i][j] = false
			}

			if !e.touching[i][j] && (b1.IsMoving() || b2.IsMoving()) {
				speed := b1.Velocity.Sub(b2.Velocity).Magnitude()
				var resolved bool
				if e.SpinTransfer {
					resolved = p.BallBall(b1, b2)
				} else {
					resolved = p.BallBallSimple(b1, b2)
				}
				if resolved {
					e.touching[i][j] = true
					events = append(events,
						CollisionEvent{Type: CollisionBall, BallID: i, TargetID: j, Speed: speed},
						CollisionEvent{Type: CollisionBall, BallID: j, TargetID: i, Speed: speed},
					)
				}
			}

			separate(b1, b2, diff, dist, contact)
		}
	}
	return events
}

// separate moves an overlapping pair apart along their centre line, half each.
func separate(b1, b2 *Ball, diff Vector3, dist, contact float64) {
	if dist <= 0 || dist >= contact {
		return
	}
	push := diff.Scale((contact - dist) / (2 * dist))
	b1.Position = b1.Position.Sub(push)
	b2.Position = b2.Position.Add(push)
}

func pocketBall(b *Ball) {
	b.IsPocketed = true
	b.Stop()
}
