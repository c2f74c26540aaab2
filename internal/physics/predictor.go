package physics

import "math"

// EventKind names a discrete change the simulation must stop at.
type EventKind string

const (
	EventNone              EventKind = ""
	EventSpinToStationary  EventKind = "spin_to_stationary"
	EventRollToStationary  EventKind = "roll_to_stationary"
	EventSlideToRoll       EventKind = "slide_to_roll"
	EventBallSlate         EventKind = "ball_slate"
	EventBallBall          EventKind = "ball_ball"
	EventBallCushion       EventKind = "ball_cushion"
	EventBallCushionVertex EventKind = "ball_cushion_vertex"
	EventBallPocket        EventKind = "ball_pocket"
)

const (
	// minEventTime separates a just-resolved contact from the next one.
	minEventTime = 1e-10
	// contactSlack is how close two surfaces must be to count as touching.
	contactSlack = 1e-9
)

// Event is the next predicted change. Time is relative to now.
// Other is a ball number, cushion index or pocket index depending on Kind;
// for vertex contacts Vertex is the cushion endpoint that is hit.
type Event struct {
	Kind   EventKind
	Time   float64
	Ball   int
	Other  int
	Vertex Vector3
}

func noEvent() Event {
	return Event{Kind: EventNone, Time: math.Inf(1), Ball: -1, Other: -1}
}

// SpinToStationaryTime is how long a spinning ball takes to stop turning.
func SpinToStationaryTime(p *Params, b *Ball) float64 {
	return math.Abs(b.AngularVelocity.Z) * 2 * p.BallRadius / (5 * p.SpinningFriction * p.Gravity)
}

// RollToStationaryTime is how long a rolling ball takes to stop.
func RollToStationaryTime(p *Params, b *Ball) float64 {
	return b.Velocity.Planar().Magnitude() / p.RollDecel()
}

// SlideToRollTime is how long a sliding ball takes to start rolling.
func SlideToRollTime(p *Params, b *Ball) float64 {
	return 2 * b.ContactVelocity(p).Magnitude() / (7 * p.SlideDecel())
}

// BallSlateTime is how long an airborne ball takes to come back to the bed.
func BallSlateTime(p *Params, b *Ball) float64 {
	h := math.Max(b.Position.Z-p.BallRadius, 0)
	vz := b.Velocity.Z
	return (vz + math.Sqrt(vz*vz+2*p.Gravity*h)) / p.Gravity
}

// BallBallTime is when two balls' centres first come 2R apart, or +Inf.
func BallBallTime(p *Params, b1, b2 *Ball) float64 {
	if b1.IsPocketed || b2.IsPocketed || (!b1.IsMoving() && !b2.IsMoving()) {
		return math.Inf(1)
	}

	c := b2.Position.Sub(b1.Position)
	v := b2.Velocity.Sub(b1.Velocity)
	a := b2.Acceleration(p).Sub(b1.Acceleration(p)).Scale(0.5)
	d := 2 * p.BallRadius

	if c.Magnitude() <= d+contactSlack && v.Dot(c) < 0 {
		return 0
	}

	t := SmallestPositiveRoot([]float64{
		a.Dot(a),
		2 * a.Dot(v),
		v.Dot(v) + 2*a.Dot(c),
		2 * v.Dot(c),
		c.Dot(c) - d*d,
	}, minEventTime)
	if math.IsInf(t, 1) {
		return t
	}
	// Only closing contacts count.
	if c.Add(v.Scale(t)).Add(a.Scale(t*t)).Dot(v.Add(a.Scale(2*t))) >= 0 {
		return math.Inf(1)
	}
	return t
}

// BallCushionTime is when the ball first touches the straight part of the
// cushion, or +Inf.
func BallCushionTime(p *Params, b *Ball, c Cushion) float64 {
	if !b.IsMoving() {
		return math.Inf(1)
	}
	seg := c.Point2.Sub(c.Point1).Planar()
	length := seg.Magnitude()
	if length == 0 {
		return math.Inf(1)
	}
	dir := seg.Scale(1 / length)
	n := Vector3{X: -dir.Y, Y: dir.X}

	r0 := b.Position.Planar().Sub(c.Point1.Planar())
	v := b.Velocity.Planar()
	a := b.Acceleration(p).Planar().Scale(0.5)

	d0, dv, da := n.Dot(r0), n.Dot(v), n.Dot(a)
	best := math.Inf(1)
	for _, side := range [2]float64{1, -1} {
		offset := side * p.BallRadius
		// Already touching and moving in.
		if math.Abs(d0-offset) <= contactSlack && dv*side < 0 {
			along := dir.Dot(r0)
			if along >= 0 && along <= length {
				return 0
			}
		}
		for _, t := range RealRoots([]float64{da, dv, d0 - offset}) {
			if t <= minEventTime || t >= best {
				continue
			}
			if (dv+2*da*t)*side >= 0 {
				continue
			}
			along := dir.Dot(r0.Add(v.Scale(t)).Add(a.Scale(t * t)))
			if along < 0 || along > length {
				continue
			}
			best = t
		}
	}
	return best
}

// BallPointTime is when the ball first comes within radius of a fixed point
// while closing on it, or +Inf. Used for cushion ends and pocket centres.
func BallPointTime(p *Params, b *Ball, point Vector3, radius float64) float64 {
	if !b.IsMoving() {
		return math.Inf(1)
	}
	c := b.Position.Planar().Sub(point.Planar())
	v := b.Velocity.Planar()
	a := b.Acceleration(p).Planar().Scale(0.5)

	if c.Magnitude() <= radius+contactSlack && v.Dot(c) < 0 {
		return 0
	}

	t := SmallestPositiveRoot([]float64{
		a.Dot(a),
		2 * a.Dot(v),
		v.Dot(v) + 2*a.Dot(c),
		2 * v.Dot(c),
		c.Dot(c) - radius*radius,
	}, minEventTime)
	if math.IsInf(t, 1) {
		return t
	}
	if c.Add(v.Scale(t)).Add(a.Scale(t*t)).Dot(v.Add(a.Scale(2*t))) >= 0 {
		return math.Inf(1)
	}
	return t
}

// NextEvent scans every ball, pair, cushion and pocket and returns the
// earliest event. Kind is EventNone when nothing will ever happen.
func NextEvent(p *Params, table *Table, balls *[NumBalls]Ball) Event {
	next := noEvent()
	consider := func(kind EventKind, t float64, ball, other int, vertex Vector3) {
		if t >= 0 && t < next.Time {
			next = Event{Kind: kind, Time: t, Ball: ball, Other: other, Vertex: vertex}
		}
	}

	for i := range balls {
		b := &balls[i]
		if !b.IsMoving() {
			continue
		}

		switch b.MotionState {
		case Spinning:
			consider(EventSpinToStationary, SpinToStationaryTime(p, b), i, -1, ZeroVector)
		case Rolling:
			consider(EventRollToStationary, RollToStationaryTime(p, b), i, -1, ZeroVector)
		case Sliding:
			consider(EventSlideToRoll, SlideToRollTime(p, b), i, -1, ZeroVector)
		case Airborne:
			consider(EventBallSlate, BallSlateTime(p, b), i, -1, ZeroVector)
		}

		for j := range balls {
			if j == i || (j < i && balls[j].IsMoving()) {
				// Moving pairs are checked once, from the lower index.
				continue
			}
			consider(EventBallBall, BallBallTime(p, b, &balls[j]), i, j, ZeroVector)
		}

		for ci, c := range table.Cushions {
			consider(EventBallCushion, BallCushionTime(p, b, c), i, ci, ZeroVector)
			for _, end := range [2]Vector3{c.Point1, c.Point2} {
				consider(EventBallCushionVertex, BallPointTime(p, b, end, p.BallRadius), i, ci, end)
			}
		}

		for pi, pocket := range table.Pockets {
			consider(EventBallPocket, BallPointTime(p, b, pocket.Position, pocket.Radius), i, pi, ZeroVector)
		}
	}
	return next
}
