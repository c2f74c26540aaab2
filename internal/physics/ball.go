package physics

import "math"

// MotionState classifies how a ball is currently moving. It selects which
// friction law applies during a tick and which transition the predictor looks for.
type MotionState string

const (
	Stationary MotionState = "Stationary"
	Spinning   MotionState = "Spinning"
	Rolling    MotionState = "Rolling"
	Sliding    MotionState = "Sliding"
	Airborne   MotionState = "Airborne"
)

// heightTolerance absorbs rounding when deciding whether a ball sits on the bed.
const heightTolerance = 1e-9

// Ball is the rigid-body state of one pool ball.
type Ball struct {
	Number             int         `json:"ballNumber"`
	Position           Vector3     `json:"position"`
	Velocity           Vector3     `json:"velocity"`
	AngularVelocity    Vector3     `json:"angularVelocity"`
	AngularOrientation Vector3     `json:"angularOrientation"`
	IsPocketed         bool        `json:"isPocketed"`
	MotionState        MotionState `json:"motionState"`
}

// NewBall places a ball at rest at (x, y) on the bed.
func NewBall(p *Params, number int, x, y float64) Ball {
	return Ball{
		Number:      number,
		Position:    Vector3{X: x, Y: y, Z: p.BallRadius},
		MotionState: Stationary,
	}
}

// InPlay reports whether the ball is on the table.
func (b *Ball) InPlay() bool {
	return !b.IsPocketed
}

// IsMoving reports whether the ball still needs simulating.
func (b *Ball) IsMoving() bool {
	return !b.IsPocketed && b.MotionState != Stationary
}

// ContactVelocity is the velocity of the point touching the bed: v + R(k̂×ω), planar.
func (b *Ball) ContactVelocity(p *Params) Vector3 {
	return Vector3{
		X: b.Velocity.X - p.BallRadius*b.AngularVelocity.Y,
		Y: b.Velocity.Y + p.BallRadius*b.AngularVelocity.X,
	}
}

// UpdateMotionState recomputes MotionState from the current velocities.
// Every code path that changes velocity or angular velocity calls it.
func (b *Ball) UpdateMotionState(p *Params) {
	switch {
	case b.IsPocketed:
		b.MotionState = Stationary
	case b.Position.Z > p.BallRadius+heightTolerance || b.Velocity.Z != 0:
		b.MotionState = Airborne
	case b.ContactVelocity(p).Magnitude() > p.SlipTolerance:
		b.MotionState = Sliding
	case b.Velocity.X != 0 || b.Velocity.Y != 0:
		b.MotionState = Rolling
	case b.AngularVelocity.Z != 0:
		b.MotionState = Spinning
	default:
		b.MotionState = Stationary
	}
}

// Stop clears all linear and angular velocity.
func (b *Ball) Stop() {
	b.Velocity = ZeroVector
	b.AngularVelocity = ZeroVector
	b.MotionState = Stationary
}

// Tick advances the ball by dt seconds under the friction law of its current
// state. It returns true when an airborne ball landed on the slate.
func (b *Ball) Tick(p *Params, dt float64) bool {
	if b.IsPocketed || dt <= 0 {
		return false
	}
	if b.MotionState == Airborne {
		return b.fly(p, dt)
	}

	b.Position = b.Position.Add(b.Velocity.Scale(dt))
	b.AngularOrientation = b.AngularOrientation.Add(b.AngularVelocity.Scale(dt))

	switch b.MotionState {
	case Spinning:
		b.decaySpin(p, dt)
	case Rolling:
		b.roll(p, dt)
		b.decaySpin(p, dt)
	case Sliding:
		b.slide(p, dt)
		b.decaySpin(p, dt)
	}

	b.UpdateMotionState(p)
	return false
}

// maxBounces caps slate bounces handled inside one tick.
const maxBounces = 32

// fly integrates free flight exactly, bouncing off the slate at the moment of
// landing rather than at the end of the tick.
func (b *Ball) fly(p *Params, dt float64) bool {
	landed := false
	for n := 0; n < maxBounces && dt > 0; n++ {
		t := BallSlateTime(p, b)
		if t > dt {
			b.ballistic(p, dt)
			b.UpdateMotionState(p)
			return landed
		}
		b.ballistic(p, t)
		b.Position.Z = p.BallRadius
		p.BallSlate(b)
		landed = true
		dt -= t
		if b.MotionState != Airborne {
			b.Tick(p, dt)
			return landed
		}
	}
	b.UpdateMotionState(p)
	return landed
}

func (b *Ball) ballistic(p *Params, t float64) {
	b.Position = b.Position.Add(b.Velocity.Scale(t))
	b.Position.Z -= 0.5 * p.Gravity * t * t
	b.Velocity.Z -= p.Gravity * t
	b.AngularOrientation = b.AngularOrientation.Add(b.AngularVelocity.Scale(t))
}

func (b *Ball) decaySpin(p *Params, dt float64) {
	b.AngularVelocity.Z = towardZero(b.AngularVelocity.Z, p.SpinDecel()*dt)
}

func (b *Ball) roll(p *Params, dt float64) {
	planar := b.Velocity.Planar()
	speed := planar.Magnitude() - p.RollDecel()*dt
	if speed <= p.MinSpeed {
		b.Velocity.X, b.Velocity.Y = 0, 0
		b.AngularVelocity.X, b.AngularVelocity.Y = 0, 0
		return
	}
	v := planar.Unit().Scale(speed)
	b.Velocity.X, b.Velocity.Y = v.X, v.Y
	b.lockRoll(p)
}

func (b *Ball) slide(p *Params, dt float64) {
	u := b.ContactVelocity(p)
	slip := u.Magnitude()
	dir := u.Unit()
	decel := p.SlideDecel()

	// Slip speed drops at 7/2·μs·g; finish the slide inside this step if it reaches zero.
	if slip <= 3.5*decel*dt {
		t := slip / (3.5 * decel)
		b.Velocity = b.Velocity.Sub(dir.Scale(decel * t))
		b.lockRoll(p)
		return
	}

	b.Velocity = b.Velocity.Sub(dir.Scale(decel * dt))
	spin := 5 * decel / (2 * p.BallRadius) * dt
	b.AngularVelocity.X += -dir.Y * spin
	b.AngularVelocity.Y += dir.X * spin
}

// lockRoll sets the horizontal angular velocity for rolling without slipping.
func (b *Ball) lockRoll(p *Params) {
	b.AngularVelocity.X = -b.Velocity.Y / p.BallRadius
	b.AngularVelocity.Y = b.Velocity.X / p.BallRadius
}

// Acceleration is the constant linear acceleration of the current state.
func (b *Ball) Acceleration(p *Params) Vector3 {
	switch b.MotionState {
	case Sliding:
		return b.ContactVelocity(p).Unit().Scale(-p.SlideDecel())
	case Rolling:
		return b.Velocity.Planar().Unit().Scale(-p.RollDecel())
	case Airborne:
		return Vector3{Z: -p.Gravity}
	}
	return ZeroVector
}

// Evolve moves the ball t seconds along the closed-form trajectory of its
// current state. The caller guarantees no transition happens inside t.
func (b *Ball) Evolve(p *Params, t float64) {
	if b.IsPocketed || t <= 0 || b.MotionState == Stationary {
		return
	}

	if b.MotionState == Airborne {
		b.ballistic(p, t)
		return
	}

	a := b.Acceleration(p)
	b.AngularOrientation = b.AngularOrientation.Add(b.AngularVelocity.Scale(t))

	switch b.MotionState {
	case Spinning:
		b.decaySpin(p, t)
	case Rolling:
		b.Position = b.Position.Add(b.Velocity.Scale(t)).Add(a.Scale(0.5 * t * t))
		dir := b.Velocity.Planar().Unit()
		speed := math.Max(b.Velocity.Planar().Magnitude()-p.RollDecel()*t, 0)
		v := dir.Scale(speed)
		b.Velocity.X, b.Velocity.Y = v.X, v.Y
		b.lockRoll(p)
		b.decaySpin(p, t)
	case Sliding:
		dir := b.ContactVelocity(p).Unit()
		b.Position = b.Position.Add(b.Velocity.Scale(t)).Add(a.Scale(0.5 * t * t))
		b.Velocity = b.Velocity.Add(a.Scale(t))
		spin := 5 * p.SlideDecel() / (2 * p.BallRadius) * t
		b.AngularVelocity.X += -dir.Y * spin
		b.AngularVelocity.Y += dir.X * spin
		b.decaySpin(p, t)
	}
}

func towardZero(x, step float64) float64 {
	if x > 0 {
		return math.Max(x-step, 0)
	}
	if x < 0 {
		return math.Min(x+step, 0)
	}
	return 0
}
