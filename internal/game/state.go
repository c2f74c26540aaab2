package game

import "errors"

// Phase is where a pool game area sits in its turn cycle.
type Phase string

const (
	PhaseNotStarted     Phase = "NOT_STARTED"
	PhaseWaitingForShot Phase = "WAITING_FOR_SHOT"
	PhaseBallsInMotion  Phase = "BALLS_IN_MOTION"
	PhaseBallInHand     Phase = "BALL_IN_HAND"
	PhaseGameOver       Phase = "GAME_OVER"
)

// BallType is the group a numbered ball belongs to.
type BallType string

const (
	BallTypeSolids  BallType = "Solids"
	BallTypeEight   BallType = "8ball"
	BallTypeStripes BallType = "Stripes"
	BallTypeCue     BallType = "CueBall"
	BallTypeInvalid BallType = "Invalid"
)

// Commands that cannot run in the current state return one of these and leave
// the area untouched.
var (
	ErrGameNotStarted   = errors.New("game has not started")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrNoOpponent       = errors.New("waiting for an opponent")
	ErrBallsInMotion    = errors.New("balls are still moving")
	ErrBallInHand       = errors.New("cue ball must be placed first")
	ErrNotPlacingBall   = errors.New("cue ball is not in hand")
	ErrInvalidPlacement = errors.New("invalid cue ball position")
	ErrInvalidCue       = errors.New("cue does not strike the cue ball")
	ErrGameOver         = errors.New("game is over")
	ErrSeatTaken        = errors.New("both seats are taken")
	ErrInvalidPlayer    = errors.New("invalid player id")
	ErrMalformedArea    = errors.New("malformed pool game area")
	ErrInvalidSnapshot  = errors.New("invalid pool game snapshot")
	ErrAreaNotFound     = errors.New("pool game area not found")
	ErrAreaExists       = errors.New("pool game area already exists")
)
