package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/physics"
)

func newShotCmd(opts *simOptions) *cobra.Command {
	s := strike{dirX: 1, speed: 2}
	var (
		statePath string
		place     []float64
	)

	cmd := &cobra.Command{
		Use:   "shot",
		Short: "Play one shot from a saved table snapshot",
		Long: `shot loads a table snapshot (the JSON printed under result.model, or
an area_update payload) and plays one shot for the player to move. Use
--state - to read the snapshot from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := readSnapshot(cmd.InOrStdin(), statePath)
			if err != nil {
				return err
			}
			area, err := game.NewPoolGameArea(model, game.BoundingBox{}, opts.areaOptions(cmd.ErrOrStderr())...)
			if err != nil {
				return err
			}
			if area.Phase() == game.PhaseBallInHand {
				if len(place) != 2 {
					return fmt.Errorf("cue ball is in hand: pass --place x,y")
				}
				if err := area.PlaceCueBall(area.ToModel().PlayerIDToMove, physics.NewVector3(place[0], place[1], 0)); err != nil {
					return err
				}
			}
			res, err := play(area, s)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&statePath, "state", "", "snapshot file, or - for stdin")
	cmd.Flags().Float64SliceVar(&place, "place", nil, "cue ball placement x,y when the ball is in hand")
	_ = cmd.MarkFlagRequired("state")
	addStrikeFlags(cmd, &s)
	return cmd
}

func readSnapshot(stdin io.Reader, path string) (game.PoolGameAreaModel, error) {
	var m game.PoolGameAreaModel
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return m, fmt.Errorf("open snapshot: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return m, fmt.Errorf("decode snapshot: %w", err)
	}
	return m, nil
}
