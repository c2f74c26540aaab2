package game

import (
	"fmt"

	"github.com/playmatatu/billiards/internal/physics"
)

// PoolBallModel is the wire form of one ball.
type PoolBallModel struct {
	AngularOrientation physics.Vector3     `json:"angularOrientation" msgpack:"ao"`
	AngularVelocity    physics.Vector3     `json:"angularVelocity" msgpack:"av"`
	Position           physics.Vector3     `json:"position" msgpack:"p"`
	Velocity           physics.Vector3     `json:"velocity" msgpack:"v"`
	BallNumber         int                 `json:"ballNumber" msgpack:"n"`
	BallType           BallType            `json:"ballType" msgpack:"t"`
	IsPocketed         bool                `json:"isPocketed" msgpack:"k"`
	MotionState        physics.MotionState `json:"motionState" msgpack:"m"`
}

// PoolGameAreaModel is the snapshot sent to clients and persisted between
// restarts. PoolBalls is empty until the first StartGame.
type PoolGameAreaModel struct {
	ID                string          `json:"id" msgpack:"id"`
	Player1ID         string          `json:"player1ID,omitempty" msgpack:"p1,omitempty"`
	Player2ID         string          `json:"player2ID,omitempty" msgpack:"p2,omitempty"`
	Player1BallType   BallType        `json:"player1BallType,omitempty" msgpack:"t1,omitempty"`
	Player2BallType   BallType        `json:"player2BallType,omitempty" msgpack:"t2,omitempty"`
	PlayerIDToMove    string          `json:"playerIDToMove,omitempty" msgpack:"mv,omitempty"`
	IsPlayer1Turn     bool            `json:"isPlayer1Turn" msgpack:"turn"`
	IsBallBeingPlaced bool            `json:"isBallBeingPlaced" msgpack:"place"`
	IsBreakShot       bool            `json:"isBreakShot" msgpack:"brk"`
	WinnerID          string          `json:"winnerID,omitempty" msgpack:"win,omitempty"`
	PoolBalls         []PoolBallModel `json:"poolBalls" msgpack:"balls"`
}

// BoundingBox is the rectangle an area occupies on the town map.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MapObject is the rectangle a map editor exports for an interactable area.
type MapObject struct {
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BallTypeByNumber classifies a ball number.
func BallTypeByNumber(n int) BallType {
	switch {
	case n == physics.CueBallNumber:
		return BallTypeCue
	case n >= 1 && n <= 7:
		return BallTypeSolids
	case n == physics.EightBallNumber:
		return BallTypeEight
	case n >= 9 && n <= 15:
		return BallTypeStripes
	}
	return BallTypeInvalid
}

func opposite(t BallType) BallType {
	switch t {
	case BallTypeSolids:
		return BallTypeStripes
	case BallTypeStripes:
		return BallTypeSolids
	}
	return ""
}

func ballModel(b physics.Ball) PoolBallModel {
	return PoolBallModel{
		AngularOrientation: b.AngularOrientation,
		AngularVelocity:    b.AngularVelocity,
		Position:           b.Position,
		Velocity:           b.Velocity,
		BallNumber:         b.Number,
		BallType:           BallTypeByNumber(b.Number),
		IsPocketed:         b.IsPocketed,
		MotionState:        b.MotionState,
	}
}

func ballModels(balls *[physics.NumBalls]physics.Ball) []PoolBallModel {
	out := make([]PoolBallModel, physics.NumBalls)
	for i := range balls {
		out[i] = ballModel(balls[i])
	}
	return out
}

// arenaFromModels rebuilds the ball arena. Every ball number must appear exactly
// once and each motion state must be the one its velocities imply.
func arenaFromModels(p *physics.Params, models []PoolBallModel) ([physics.NumBalls]physics.Ball, error) {
	var balls [physics.NumBalls]physics.Ball
	if len(models) != physics.NumBalls {
		return balls, fmt.Errorf("%w: %d balls", ErrInvalidSnapshot, len(models))
	}

	var seen [physics.NumBalls]bool
	for _, m := range models {
		if m.BallNumber < 0 || m.BallNumber >= physics.NumBalls || seen[m.BallNumber] {
			return balls, fmt.Errorf("%w: ball number %d", ErrInvalidSnapshot, m.BallNumber)
		}
		if !m.Position.IsFinite() || !m.Velocity.IsFinite() ||
			!m.AngularVelocity.IsFinite() || !m.AngularOrientation.IsFinite() {
			return balls, fmt.Errorf("%w: ball %d is not finite", ErrInvalidSnapshot, m.BallNumber)
		}
		seen[m.BallNumber] = true
		b := physics.Ball{
			Number:             m.BallNumber,
			Position:           m.Position,
			Velocity:           m.Velocity,
			AngularVelocity:    m.AngularVelocity,
			AngularOrientation: m.AngularOrientation,
			IsPocketed:         m.IsPocketed,
		}
		b.UpdateMotionState(p)
		if b.MotionState != m.MotionState {
			return balls, fmt.Errorf("%w: ball %d is %q but its velocities say %q",
				ErrInvalidSnapshot, m.BallNumber, m.MotionState, b.MotionState)
		}
		balls[m.BallNumber] = b
	}
	return balls, nil
}

func validBallType(t BallType) bool {
	return t == "" || t == BallTypeSolids || t == BallTypeStripes
}
