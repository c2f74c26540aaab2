package physics

import "math"

// NumBalls is the cue ball plus fifteen object balls. Ball number doubles as arena index.
const NumBalls = 16

const (
	CueBallNumber   = 0
	EightBallNumber = 8
)

// Table dimensions in metres and radians.
const (
	TableLength               = 2.54
	TableWidth                = 1.27
	CushionWidth              = 0.051
	CornerPocketEntranceWidth = 0.117
	SidePocketEntranceWidth   = 0.133
	CornerPocketRadius        = 0.062
	SidePocketRadius          = 0.0645
	CornerPocketAngle         = 2.478368
	SidePocketAngle           = 1.815142
	CornerPocketShelfDepth    = 0.05715
	SidePocketShelfDepth      = 0.009525
)

// Params holds every physical coefficient the simulation reads.
// DefaultParams gives regulation values; config can override any of them.
type Params struct {
	BallMass   float64
	BallRadius float64
	Gravity    float64

	RollingFriction  float64
	SlidingFriction  float64
	SpinningFriction float64

	BallBallRestitution float64
	BallBallFriction    float64

	CueMass           float64
	CueTipFriction    float64
	CueTipRestitution float64

	CushionHeight           float64
	CushionRestitutionFloor float64

	SlateRestitution float64
	SlateRestSpeed   float64

	// MinSpeed snaps slower rolling balls to rest.
	MinSpeed float64
	// SlipTolerance is the contact-point speed under which a ball counts as rolling.
	SlipTolerance float64
}

// DefaultParams returns regulation ball and table coefficients.
func DefaultParams() Params {
	r := 0.028575
	return Params{
		BallMass:                0.16726,
		BallRadius:              r,
		Gravity:                 9.8,
		RollingFriction:         0.01,
		SlidingFriction:         0.2,
		SpinningFriction:        0.4444 * r,
		BallBallRestitution:     0.96,
		BallBallFriction:        0.1,
		CueMass:                 0.53864,
		CueTipFriction:          0.6,
		CueTipRestitution:       0.75,
		CushionHeight:           1.2 * r,
		CushionRestitutionFloor: 0.5,
		SlateRestitution:        0.5,
		SlateRestSpeed:          0.01,
		MinSpeed:                0.001,
		SlipTolerance:           1e-4,
	}
}

// MomentOfInertia is that of a solid sphere, (2/5)mR².
func (p *Params) MomentOfInertia() float64 {
	return 0.4 * p.BallMass * p.BallRadius * p.BallRadius
}

// SpinDecel is the angular deceleration of spin about the vertical axis.
func (p *Params) SpinDecel() float64 {
	return 5 * p.SpinningFriction * p.Gravity / (2 * p.BallRadius)
}

// RollDecel is the linear deceleration of a rolling ball.
func (p *Params) RollDecel() float64 {
	return p.RollingFriction * p.Gravity
}

// SlideDecel is the linear deceleration of a sliding ball along its slip direction.
func (p *Params) SlideDecel() float64 {
	return p.SlidingFriction * p.Gravity
}

// CushionContactAngle is the angle between the bed and the line from ball centre to rail nose.
func (p *Params) CushionContactAngle() float64 {
	return math.Asin((p.CushionHeight - p.BallRadius) / p.BallRadius)
}

// CushionRestitution depends on the normal speed into the rail and never drops below the floor.
func (p *Params) CushionRestitution(speed float64) float64 {
	e := 0.39 + 0.257*speed - 0.044*speed*speed
	if e < p.CushionRestitutionFloor {
		return p.CushionRestitutionFloor
	}
	if e > 1 {
		return 1
	}
	return e
}
