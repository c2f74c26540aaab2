package game

import "github.com/playmatatu/billiards/internal/physics"

// Foul types.
const (
	FoulWrongFirstContact = "wrong_first_contact"
	FoulNoContact         = "no_contact"
	FoulCuePocketed       = "scratch"
	FoulCueOutOfBounds    = "cue_out_of_bounds"
)

// Game-over reasons.
const (
	WinPocketedEight  = "pocket_8"
	WinIllegalEight   = "illegal_8ball"
	WinScratchOnEight = "scratch_on_8"
	WinForfeit        = "forfeit"
)

// FoulInfo describes the scratch a shot committed.
type FoulInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// GameOverState is the answer to IsGameOver.
type GameOverState struct {
	IsGameOver    bool `json:"isGameOver"`
	DidPlayer1Win bool `json:"didPlayer1Win"`
}

// shotTracker folds a shot's collision stream into what the rules need.
// Contacts are judged in the order they happened and only the first scratch counts.
type shotTracker struct {
	shooterType   BallType
	mayShootEight bool

	firstContact int
	pocketed     []int
	cuePocketed  bool
	eightPocket  bool
	foul         *FoulInfo
	collisions   int
}

func newShotTracker(shooterType BallType, mayShootEight bool) *shotTracker {
	return &shotTracker{shooterType: shooterType, mayShootEight: mayShootEight, firstContact: -1}
}

func (s *shotTracker) observe(events []physics.CollisionEvent) {
	for _, ev := range events {
		s.collisions++
		switch ev.Type {
		case physics.CollisionBall:
			if ev.BallID != physics.CueBallNumber || s.firstContact >= 0 {
				continue
			}
			s.firstContact = ev.TargetID
			if s.shooterType != "" && !s.legalFirstContact(ev.TargetID) {
				s.scratch(FoulWrongFirstContact, "Cue ball hit the wrong ball first")
			}

		case physics.CollisionPocket:
			s.pocketed = append(s.pocketed, ev.BallID)
			switch ev.BallID {
			case physics.CueBallNumber:
				s.cuePocketed = true
				s.scratch(FoulCuePocketed, "Cue ball pocketed")
			case physics.EightBallNumber:
				s.eightPocket = true
			}

		case physics.CollisionOutOfBounds:
			if ev.BallID == physics.CueBallNumber {
				s.scratch(FoulCueOutOfBounds, "Cue ball left the table")
			}
		}
	}
}

func (s *shotTracker) legalFirstContact(n int) bool {
	if n == physics.EightBallNumber {
		return s.mayShootEight
	}
	return BallTypeByNumber(n) == s.shooterType
}

// finish applies the checks that need the whole shot.
func (s *shotTracker) finish() {
	if s.firstContact < 0 {
		s.scratch(FoulNoContact, "Cue ball did not hit any ball")
	}
}

func (s *shotTracker) scratch(kind, msg string) {
	if s.foul == nil {
		s.foul = &FoulInfo{Type: kind, Message: msg}
	}
}

// firstObjectBall is the first numbered ball other than the eight pocketed this shot, or -1.
func (s *shotTracker) firstObjectBall() int {
	for _, n := range s.pocketed {
		if n != physics.CueBallNumber && n != physics.EightBallNumber {
			return n
		}
	}
	return -1
}

// pocketedOfType counts balls of type t that are off the table.
func pocketedOfType(balls *[physics.NumBalls]physics.Ball, t BallType) int {
	if t == "" {
		return 0
	}
	n := 0
	for i := range balls {
		if balls[i].IsPocketed && BallTypeByNumber(i) == t {
			n++
		}
	}
	return n
}

// groupSize is how many balls each player must clear before the eight.
const groupSize = 7

// gameOverFor applies the eight-ball rule from the point of view of the
// player whose turn it is. It reads state only.
func gameOverFor(balls *[physics.NumBalls]physics.Ball, isPlayer1Turn bool, p1Type, p2Type BallType) GameOverState {
	if !balls[physics.EightBallNumber].IsPocketed || balls[physics.CueBallNumber].IsPocketed {
		return GameOverState{}
	}
	current := p2Type
	if isPlayer1Turn {
		current = p1Type
	}
	currentWins := pocketedOfType(balls, current) == groupSize
	return GameOverState{IsGameOver: true, DidPlayer1Win: currentWins == isPlayer1Turn}
}
