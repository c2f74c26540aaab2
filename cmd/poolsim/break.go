package main

import (
	"github.com/spf13/cobra"

	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/physics"
)

func newBreakCmd(opts *simOptions) *cobra.Command {
	s := strike{dirX: 1, speed: 6}

	cmd := &cobra.Command{
		Use:   "break",
		Short: "Rack the balls and play the break shot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			area, err := game.NewPoolGameArea(
				game.PoolGameAreaModel{ID: "poolsim", Player1ID: "player1", Player2ID: "player2"},
				game.BoundingBox{},
				opts.areaOptions(cmd.ErrOrStderr())...)
			if err != nil {
				return err
			}
			if err := area.StartGame(); err != nil {
				return err
			}
			res, err := play(area, s)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res)
		},
	}

	addStrikeFlags(cmd, &s)
	return cmd
}

// play strikes the cue ball of area for whoever is to move.
func play(area *game.PoolGameArea, s strike) (*game.ShotResult, error) {
	m := area.ToModel()
	var cueBall physics.Ball
	for _, b := range m.PoolBalls {
		if b.BallNumber == physics.CueBallNumber {
			cueBall = physics.Ball{Number: b.BallNumber, Position: b.Position}
		}
	}
	cue, err := s.cue(physics.DefaultParams(), cueBall)
	if err != nil {
		return nil, err
	}
	return area.PoolMove(m.PlayerIDToMove, cue)
}

func addStrikeFlags(cmd *cobra.Command, s *strike) {
	f := cmd.Flags()
	f.Float64Var(&s.dirX, "dir-x", s.dirX, "aim direction, x component")
	f.Float64Var(&s.dirY, "dir-y", s.dirY, "aim direction, y component")
	f.Float64Var(&s.speed, "speed", s.speed, "cue stick speed in m/s")
	f.Float64Var(&s.side, "side", 0, "tip offset to the right of centre, in radii")
	f.Float64Var(&s.height, "height", 0, "tip offset above centre, in radii")
	f.Float64Var(&s.elevation, "elevation", 0, "cue elevation in degrees")
}
