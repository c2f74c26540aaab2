package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movingBall(p *Params, v, w Vector3) Ball {
	b := NewBall(p, 1, 1.0, 0.6)
	b.Velocity = v
	b.AngularVelocity = w
	b.UpdateMotionState(p)
	return b
}

func TestMotionStateClassification(t *testing.T) {
	p := DefaultParams()
	r := p.BallRadius

	tests := []struct {
		name string
		v, w Vector3
		want MotionState
	}{
		{"at rest", ZeroVector, ZeroVector, Stationary},
		{"spin only", ZeroVector, NewVector3(0, 0, 5), Spinning},
		{"rolling", NewVector3(1, 0, 0), NewVector3(0, 1/r, 0), Rolling},
		{"rolling along y", NewVector3(0, 1, 0), NewVector3(-1/r, 0, 0), Rolling},
		{"skidding", NewVector3(1, 0, 0), ZeroVector, Sliding},
		{"backspin in place", ZeroVector, NewVector3(0, -10, 0), Sliding},
		{"lifting", NewVector3(0, 0, 0.5), ZeroVector, Airborne},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := movingBall(&p, tt.v, tt.w)
			assert.Equal(t, tt.want, b.MotionState)
		})
	}
}

func TestRollingDeceleratesAndKeepsRollingSpin(t *testing.T) {
	p := DefaultParams()
	b := movingBall(&p, NewVector3(1, 0, 0), NewVector3(0, 1/p.BallRadius, 0))
	require.Equal(t, Rolling, b.MotionState)

	b.Tick(&p, 0.1)

	assert.InDelta(t, 1.1, b.Position.X, 1e-12)
	assert.InDelta(t, 1-p.RollDecel()*0.1, b.Velocity.X, 1e-12)
	assert.InDelta(t, b.Velocity.X/p.BallRadius, b.AngularVelocity.Y, 1e-9)
	assert.Equal(t, Rolling, b.MotionState)
}

func TestRollingComesToRest(t *testing.T) {
	p := DefaultParams()
	b := movingBall(&p, NewVector3(0.05, 0, 0), NewVector3(0, 0.05/p.BallRadius, 0))

	for i := 0; i < 1000 && b.IsMoving(); i++ {
		b.Tick(&p, 0.01)
	}

	assert.Equal(t, Stationary, b.MotionState)
	assert.Equal(t, ZeroVector, b.Velocity)
}

func TestSlidingBallStartsRolling(t *testing.T) {
	p := DefaultParams()
	b := movingBall(&p, NewVector3(2, 0, 0), ZeroVector)
	require.Equal(t, Sliding, b.MotionState)

	ticks := 0
	for ; ticks < 2000 && b.MotionState == Sliding; ticks++ {
		b.Tick(&p, 0.001)
	}

	require.Equal(t, Rolling, b.MotionState)
	// A stun shot ends its slide at 5/7 of the starting speed.
	assert.InDelta(t, 2*5.0/7.0, b.Velocity.X, 0.01)
	assert.InDelta(t, b.Velocity.X/p.BallRadius, b.AngularVelocity.Y, 1e-6)
	assert.InDelta(t, SlideToRollTime(&p, &Ball{Velocity: NewVector3(2, 0, 0)})*1000, float64(ticks), 2)
}

func TestSpinDecaysToStationary(t *testing.T) {
	p := DefaultParams()
	b := movingBall(&p, ZeroVector, NewVector3(0, 0, 10))
	require.Equal(t, Spinning, b.MotionState)

	b.Tick(&p, 0.1)
	assert.InDelta(t, 10-p.SpinDecel()*0.1, b.AngularVelocity.Z, 1e-12)

	for i := 0; i < 200 && b.IsMoving(); i++ {
		b.Tick(&p, 0.01)
	}
	assert.Equal(t, Stationary, b.MotionState)
	assert.Equal(t, 0.0, b.AngularVelocity.Z)
}

func TestAirborneBallSettlesOnSlate(t *testing.T) {
	p := DefaultParams()
	b := NewBall(&p, 3, 1, 0.6)
	b.Position.Z += 0.1
	b.UpdateMotionState(&p)
	require.Equal(t, Airborne, b.MotionState)

	landed := false
	for i := 0; i < 500 && b.MotionState == Airborne; i++ {
		if b.Tick(&p, 0.01) {
			landed = true
		}
	}

	assert.True(t, landed)
	assert.NotEqual(t, Airborne, b.MotionState)
	assert.Equal(t, p.BallRadius, b.Position.Z)
	assert.Equal(t, 0.0, b.Velocity.Z)
}

func TestPocketedBallDoesNotMove(t *testing.T) {
	p := DefaultParams()
	b := movingBall(&p, NewVector3(1, 0, 0), ZeroVector)
	b.IsPocketed = true
	before := b.Position

	b.Tick(&p, 0.5)
	b.Evolve(&p, 0.5)

	assert.Equal(t, before, b.Position)
}

func TestEvolveMatchesClosedFormRoll(t *testing.T) {
	p := DefaultParams()
	b := movingBall(&p, NewVector3(1, 0, 0), NewVector3(0, 1/p.BallRadius, 0))

	b.Evolve(&p, 2)

	a := p.RollDecel()
	assert.InDelta(t, 1.0+2-0.5*a*4, b.Position.X, 1e-12)
	assert.InDelta(t, 1-a*2, b.Velocity.X, 1e-12)
}
