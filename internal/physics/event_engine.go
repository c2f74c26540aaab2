package physics

// maxEventsPerStep keeps a pathological cluster of simultaneous contacts from
// stalling a single Step.
const maxEventsPerStep = 10000

// EventEngine jumps from one predicted event to the next, evolving every ball
// along its closed-form trajectory in between.
type EventEngine struct {
	Params *Params
	Table  *Table
	Balls  *[NumBalls]Ball
}

func NewEventEngine(p *Params, table *Table, balls *[NumBalls]Ball) *EventEngine {
	return &EventEngine{Params: p, Table: table, Balls: balls}
}

func (e *EventEngine) InMotion() bool {
	return anyMoving(e.Balls)
}

// Step processes every event falling inside the next dt seconds.
func (e *EventEngine) Step(dt float64) []CollisionEvent {
	events := make([]CollisionEvent, 0)
	remaining := dt

	for n := 0; n < maxEventsPerStep && remaining > 0; n++ {
		next := NextEvent(e.Params, e.Table, e.Balls)
		if next.Kind == EventNone || next.Time > remaining {
			break
		}
		e.evolve(next.Time)
		remaining -= next.Time
		events = e.resolve(next, events)
	}
	if remaining > 0 {
		e.evolve(remaining)
	}

	for i := range e.Balls {
		b := &e.Balls[i]
		if b.InPlay() && !e.Table.InBounds(b.Position) {
			events = append(events, CollisionEvent{Type: CollisionOutOfBounds, BallID: i, TargetID: -1, Speed: b.Velocity.Magnitude()})
			b.Position = e.Table.Clamp(b.Position, e.Params.BallRadius)
			b.Position.Z = e.Params.BallRadius
			b.Stop()
		}
	}
	return events
}

func (e *EventEngine) evolve(t float64) {
	for i := range e.Balls {
		e.Balls[i].Evolve(e.Params, t)
	}
}

func (e *EventEngine) resolve(ev Event, events []CollisionEvent) []CollisionEvent {
	p := e.Params
	b := &e.Balls[ev.Ball]

	switch ev.Kind {
	case EventSpinToStationary:
		b.AngularVelocity.Z = 0
		b.UpdateMotionState(p)

	case EventRollToStationary:
		b.Velocity.X, b.Velocity.Y = 0, 0
		b.AngularVelocity.X, b.AngularVelocity.Y = 0, 0
		b.UpdateMotionState(p)

	case EventSlideToRoll:
		b.lockRoll(p)
		b.UpdateMotionState(p)

	case EventBallSlate:
		speed := -b.Velocity.Z
		b.Position.Z = p.BallRadius
		p.BallSlate(b)
		events = append(events, CollisionEvent{Type: CollisionSlate, BallID: ev.Ball, TargetID: -1, Speed: speed})

	case EventBallBall:
		other := &e.Balls[ev.Other]
		speed := b.Velocity.Sub(other.Velocity).Magnitude()
		if p.BallBall(b, other) {
			events = append(events,
				CollisionEvent{Type: CollisionBall, BallID: ev.Ball, TargetID: ev.Other, Speed: speed},
				CollisionEvent{Type: CollisionBall, BallID: ev.Other, TargetID: ev.Ball, Speed: speed},
			)
		}

	case EventBallCushion, EventBallCushionVertex:
		var contact Vector3
		if ev.Kind == EventBallCushionVertex {
			contact = ev.Vertex.Planar()
		} else {
			contact = e.Table.Cushions[ev.Other].ClosestPoint(b.Position)
		}
		normal := b.Position.Planar().Sub(contact).Unit()
		speed := -b.Velocity.Dot(normal)
		if p.BallCushion(b, normal) {
			events = append(events, CollisionEvent{Type: CollisionCushion, BallID: ev.Ball, TargetID: ev.Other, Speed: speed})
		}

	case EventBallPocket:
		events = append(events, CollisionEvent{Type: CollisionPocket, BallID: ev.Ball, TargetID: ev.Other, Speed: b.Velocity.Magnitude()})
		pocketBall(b)
	}
	return events
}
