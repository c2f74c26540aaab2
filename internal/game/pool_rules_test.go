package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playmatatu/billiards/internal/physics"
)

func ballHit(a, b int) []physics.CollisionEvent {
	return []physics.CollisionEvent{
		{Type: physics.CollisionBall, BallID: a, TargetID: b},
		{Type: physics.CollisionBall, BallID: b, TargetID: a},
	}
}

func pocket(n int) physics.CollisionEvent {
	return physics.CollisionEvent{Type: physics.CollisionPocket, BallID: n}
}

func TestShotTrackerFirstContact(t *testing.T) {
	tests := []struct {
		name          string
		shooterType   BallType
		mayShootEight bool
		target        int
		wantFoul      string
	}{
		{"open table any ball", "", false, 12, ""},
		{"open table eight", "", false, physics.EightBallNumber, ""},
		{"own group", BallTypeSolids, false, 4, ""},
		{"other group", BallTypeSolids, false, 9, FoulWrongFirstContact},
		{"eight too early", BallTypeStripes, false, physics.EightBallNumber, FoulWrongFirstContact},
		{"eight after clearing", BallTypeStripes, true, physics.EightBallNumber, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newShotTracker(tt.shooterType, tt.mayShootEight)
			s.observe(ballHit(physics.CueBallNumber, tt.target))
			s.observe(ballHit(tt.target, 3))
			s.finish()

			assert.Equal(t, tt.target, s.firstContact)
			if tt.wantFoul == "" {
				assert.Nil(t, s.foul)
				return
			}
			require.NotNil(t, s.foul)
			assert.Equal(t, tt.wantFoul, s.foul.Type)
		})
	}
}

func TestShotTrackerFirstScratchWins(t *testing.T) {
	s := newShotTracker(BallTypeSolids, false)
	s.observe([]physics.CollisionEvent{
		pocket(physics.CueBallNumber),
		{Type: physics.CollisionOutOfBounds, BallID: physics.CueBallNumber},
	})
	s.finish()

	require.NotNil(t, s.foul)
	assert.Equal(t, FoulCuePocketed, s.foul.Type)
	assert.True(t, s.cuePocketed)

	s = newShotTracker(BallTypeSolids, false)
	s.observe(ballHit(physics.CueBallNumber, 11))
	s.observe([]physics.CollisionEvent{pocket(physics.CueBallNumber)})
	s.finish()
	assert.Equal(t, FoulWrongFirstContact, s.foul.Type)
}

func TestShotTrackerNoContact(t *testing.T) {
	s := newShotTracker("", false)
	s.observe([]physics.CollisionEvent{{Type: physics.CollisionCushion, BallID: physics.CueBallNumber, TargetID: 2}})
	assert.Nil(t, s.foul)

	s.finish()
	require.NotNil(t, s.foul)
	assert.Equal(t, FoulNoContact, s.foul.Type)
	assert.Equal(t, -1, s.firstContact)
	assert.Equal(t, 1, s.collisions)
}

func TestShotTrackerObjectBallOutOfBoundsIsNotAFoul(t *testing.T) {
	s := newShotTracker("", false)
	s.observe(ballHit(physics.CueBallNumber, 6))
	s.observe([]physics.CollisionEvent{{Type: physics.CollisionOutOfBounds, BallID: 6}})
	s.finish()
	assert.Nil(t, s.foul)
}

func TestShotTrackerFirstObjectBall(t *testing.T) {
	s := newShotTracker("", false)
	assert.Equal(t, -1, s.firstObjectBall())

	s.observe([]physics.CollisionEvent{pocket(physics.EightBallNumber), pocket(physics.CueBallNumber), pocket(13), pocket(2)})
	assert.Equal(t, 13, s.firstObjectBall())
	assert.Equal(t, []int{8, 0, 13, 2}, s.pocketed)
	assert.True(t, s.eightPocket)
}

func TestPocketedOfType(t *testing.T) {
	balls := physics.RackBalls(&params)
	for _, n := range []int{1, 2, 3, 9, 8} {
		balls[n].IsPocketed = true
	}

	assert.Equal(t, 3, pocketedOfType(&balls, BallTypeSolids))
	assert.Equal(t, 1, pocketedOfType(&balls, BallTypeStripes))
	assert.Zero(t, pocketedOfType(&balls, ""))
}

func TestGameOverForReadsOnlyTheTable(t *testing.T) {
	balls := physics.RackBalls(&params)
	assert.Equal(t, GameOverState{}, gameOverFor(&balls, true, BallTypeSolids, BallTypeStripes))

	balls[physics.EightBallNumber].IsPocketed = true
	before := balls
	// Nobody has a group yet so the current player cannot have cleared one.
	assert.Equal(t, GameOverState{IsGameOver: true, DidPlayer1Win: false}, gameOverFor(&balls, true, "", ""))
	assert.Equal(t, GameOverState{IsGameOver: true, DidPlayer1Win: true}, gameOverFor(&balls, false, "", ""))
	assert.Equal(t, before, balls)
}
