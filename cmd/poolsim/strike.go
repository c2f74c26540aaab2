package main

import (
	"fmt"
	"math"

	"github.com/playmatatu/billiards/internal/physics"
)

// strike describes a stroke in player terms. The tip offset must stay inside
// half a radius of the ball centre.
type strike struct {
	dirX, dirY float64
	speed      float64
	side       float64 // right english, as a fraction of the radius
	height     float64 // follow above centre, draw below
	elevation  float64 // stick tilt in degrees
}

func (s strike) cue(p physics.Params, ball physics.Ball) (physics.Cue, error) {
	aim := physics.NewVector3(s.dirX, s.dirY, 0).Unit()
	if aim.IsZero() {
		return physics.Cue{}, fmt.Errorf("aim direction must not be zero")
	}
	if s.speed <= 0 {
		return physics.Cue{}, fmt.Errorf("speed must be positive")
	}
	if s.side*s.side+s.height*s.height >= 0.5*0.5 {
		return physics.Cue{}, fmt.Errorf("tip offset must stay within half a radius of centre")
	}
	if s.elevation < 0 || s.elevation >= 90 {
		return physics.Cue{}, fmt.Errorf("elevation must be in [0, 90) degrees")
	}

	right := physics.NewVector3(aim.Y, -aim.X, 0)
	up := physics.NewVector3(0, 0, 1)
	back := math.Sqrt(1 - s.side*s.side - s.height*s.height)
	face := aim.Scale(-back).Add(right.Scale(s.side)).Add(up.Scale(s.height))

	elev := s.elevation * math.Pi / 180
	vel := aim.Scale(s.speed * math.Cos(elev)).Add(up.Scale(-s.speed * math.Sin(elev)))

	return physics.Cue{
		Position: ball.Position.Add(face.Scale(p.BallRadius)),
		Velocity: vel,
	}, nil
}
