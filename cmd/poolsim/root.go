package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/logging"
	"github.com/playmatatu/billiards/internal/physics"
)

// simOptions are the flags every subcommand shares.
type simOptions struct {
	mode     string
	tick     float64
	maxTicks int
	stride   int
	seed     int64
	history  bool
	verbose  bool
}

func (o *simOptions) simConfig() game.SimConfig {
	c := game.DefaultSimConfig()
	c.Mode = o.mode
	if o.tick > 0 {
		c.TickSeconds = o.tick
	}
	if o.maxTicks > 0 {
		c.MaxTicks = o.maxTicks
	}
	if o.stride > 0 {
		c.HistoryStride = o.stride
	}
	return c
}

func (o *simOptions) logger(w io.Writer) *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	logger, _ := logging.New(logging.Config{Service: "poolsim", Level: "debug", Format: "console"}, zapcore.AddSync(w))
	return logger
}

func (o *simOptions) areaOptions(w io.Writer) []game.Option {
	return []game.Option{
		game.WithSimConfig(o.simConfig()),
		game.WithRand(rand.New(rand.NewSource(o.seed))),
		game.WithLogger(o.logger(w)),
	}
}

// output is what a subcommand prints.
type output struct {
	Result  *game.ShotResult  `json:"result"`
	History *game.ShotHistory `json:"history,omitempty"`
}

func (o *simOptions) print(w io.Writer, res *game.ShotResult) error {
	out := output{Result: res}
	if o.history {
		out.History = &res.History
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &simOptions{}

	root := &cobra.Command{
		Use:   "poolsim",
		Short: "Simulate 8-ball shots from the command line",
		Long: `poolsim plays single shots on a regulation table and prints the
shot result and final table snapshot as JSON.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.mode {
			case physics.ModeFixed, physics.ModeEvent:
				return nil
			}
			return fmt.Errorf("unknown mode %q (want %s or %s)", opts.mode, physics.ModeFixed, physics.ModeEvent)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.mode, "mode", game.DefaultSimConfig().Mode, "simulation mode: fixed or event")
	pf.Float64Var(&opts.tick, "tick", 0, "seconds per tick (default from the game settings)")
	pf.IntVar(&opts.maxTicks, "max-ticks", 0, "stop a shot after this many ticks")
	pf.IntVar(&opts.stride, "stride", 0, "record every n-th tick into the history")
	pf.Int64Var(&opts.seed, "seed", 1, "seed for the breaking player draw")
	pf.BoolVar(&opts.history, "history", false, "include the recorded frames in the output")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log the game to stderr")

	root.AddCommand(newBreakCmd(opts), newShotCmd(opts))
	return root
}
