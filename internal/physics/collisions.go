package physics

import "math"

// Resolvers below only change velocities. Positions belong to the engines.
// Each returns false when the geometry is degenerate or the bodies are separating,
// in which case nothing is modified.

// CueStrike transfers the cue's momentum into the ball.
//
// The tip meets the ball on the line from cue.Position to the ball centre.
// Tip friction throws the ball off that line towards the cue direction and
// the off-centre impulse sets its spin.
func (p *Params) CueStrike(cue Cue, ball *Ball) bool {
	toCentre := ball.Position.Sub(cue.Position)
	n := toCentre.Unit()
	if n.IsZero() || !cue.Valid() {
		return false
	}

	vc := cue.Velocity.Scale(p.CueTipRestitution)
	theta := n.AngleBetween(vc)
	if theta >= math.Pi/2 {
		// The stick is moving away from the ball.
		return false
	}
	phi := math.Atan(p.CueTipFriction * math.Sin(theta))
	alpha := theta - phi

	speed := 2 * vc.Magnitude() * math.Cos(alpha) / (1 + p.BallMass/p.CueMass)
	tangent := n.Cross(vc.Unit().Cross(n)).Scale(p.CueTipFriction)
	vb := n.Add(tangent).Unit().Scale(speed)

	cueAfter := vc.Sub(vb.Scale(p.BallMass / p.CueMass))
	impulse := vc.Sub(cueAfter).Scale(p.CueMass)
	lever := n.Scale(-p.BallRadius)

	ball.AngularVelocity = ball.AngularVelocity.Add(lever.Cross(impulse).Scale(1 / p.MomentOfInertia()))
	ball.Velocity = ball.Velocity.Add(vb)

	onBed := ball.Position.Z <= p.BallRadius+heightTolerance
	if onBed {
		if cue.Velocity.Z < 0 {
			// Elevated stick drives the ball into the slate: jump.
			p.BallSlate(ball)
		} else {
			ball.Velocity.Z = 0
		}
	}

	ball.UpdateMotionState(p)
	return true
}

// BallBall resolves contact between two balls, including cut-induced throw
// and friction from the spin of either ball at the contact point.
func (p *Params) BallBall(b1, b2 *Ball) bool {
	return p.ballBall(b1, b2, true)
}

// BallBallSimple resolves contact between two balls without friction or spin transfer.
func (p *Params) BallBallSimple(b1, b2 *Ball) bool {
	return p.ballBall(b1, b2, false)
}

func (p *Params) ballBall(b1, b2 *Ball, withFriction bool) bool {
	n := b2.Position.Sub(b1.Position).Unit()
	if n.IsZero() {
		return false
	}

	// Work in the frame where b2 is at rest.
	rel := b1.Velocity.Sub(b2.Velocity)
	approach := rel.Dot(n)
	if approach <= 0 {
		return false
	}

	dv := n.Scale(approach * (1 + p.BallBallRestitution) / 2)

	if withFriction {
		theta := n.AngleBetween(rel)
		throw := n.Cross(rel.Cross(n)).Unit().Scale(approach * p.BallBallFriction * math.Sin(theta))

		slip := b1.AngularVelocity.Add(b2.AngularVelocity).Cross(n.Scale(p.BallRadius))
		slip = slip.Sub(n.Scale(slip.Dot(n))).Planar().Scale(p.BallBallFriction)

		dv = dv.Add(throw).Add(slip)
	}

	b2.Velocity = b2.Velocity.Add(dv)
	b1.Velocity = b1.Velocity.Sub(dv)

	if withFriction {
		// Impulse acts at the contact point, R from each centre along ∓n.
		impulse := dv.Scale(p.BallMass)
		dw := n.Scale(-p.BallRadius).Cross(impulse).Scale(1 / p.MomentOfInertia())
		b1.AngularVelocity = b1.AngularVelocity.Add(dw)
		b2.AngularVelocity = b2.AngularVelocity.Add(dw)
	}

	b1.UpdateMotionState(p)
	b2.UpdateMotionState(p)
	return true
}

// BallCushion bounces the ball off a rail. normal points from the rail towards
// the ball centre. The rail nose sits above the ball equator, so the contact
// impulse has a vertical component that couples linear motion and spin.
func (p *Params) BallCushion(ball *Ball, normal Vector3) bool {
	into := normal.Planar().Unit().Scale(-1)
	if into.IsZero() {
		return false
	}

	frame := rotationZ(into)
	v := toFrame(frame, ball.Velocity)
	w := toFrame(frame, ball.AngularVelocity)
	if v.X <= 0 {
		return false
	}

	m, r, inertia := p.BallMass, p.BallRadius, p.MomentOfInertia()
	theta := p.CushionContactAngle()
	sinT, cosT := math.Sin(theta), math.Cos(theta)
	e := p.CushionRestitution(v.X)
	mu := 0.471 - 0.241*theta

	sx := v.X*sinT - v.Z*cosT + r*w.Y
	sy := -v.Y - r*w.Z*cosT + r*w.X*sinT
	c := v.X * cosT

	pzE := (1 + e) * m * c
	pzS := 2 * m / 7 * math.Hypot(sx, sy)

	var px, py, pz float64
	if pzS <= pzE {
		// Slip stops before compression ends.
		px = -2*m/7*sx*sinT - pzE*cosT
		py = 2 * m / 7 * sy
		pz = 2*m/7*sx*cosT - pzE*sinT
	} else {
		slip := math.Hypot(sx, sy)
		cosP, sinP := sx/slip, sy/slip
		px = -mu*pzE*cosP*sinT - pzE*cosT
		py = mu * pzE * sinP
		pz = mu*pzE*cosP*cosT - pzE*sinT
	}

	v.X += px / m
	v.Y += py / m

	w.X += -r / inertia * py * sinT
	w.Y += r / inertia * (px*sinT - pz*cosT)
	w.Z += r / inertia * py * cosT

	vz := ball.Velocity.Z
	ball.Velocity = fromFrame(frame, v)
	// The vertical impulse is taken up by the bed.
	ball.Velocity.Z = vz
	ball.AngularVelocity = fromFrame(frame, w)

	ball.UpdateMotionState(p)
	return true
}

// BallSlate bounces a descending ball off the bed. Once the rebound is slower
// than SlateRestSpeed the ball settles and stops being airborne.
func (p *Params) BallSlate(ball *Ball) bool {
	if ball.Velocity.Z < 0 {
		ball.Velocity.Z = -ball.Velocity.Z * p.SlateRestitution
	}
	if math.Abs(ball.Velocity.Z) < p.SlateRestSpeed {
		ball.Velocity.Z = 0
		ball.Position.Z = p.BallRadius
	}
	ball.UpdateMotionState(p)
	return true
}
