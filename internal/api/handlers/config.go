package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/physics"
)

// GetConfig returns the table geometry and simulation settings a client needs
// to draw the table and animate shot histories.
func GetConfig(params physics.Params, sim game.SimConfig) gin.HandlerFunc {
	table := physics.NewStandardTable()
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"table": gin.H{
				"length":   table.Length,
				"width":    table.Width,
				"cushions": table.Cushions,
				"pockets":  table.Pockets,
			},
			"ball_radius":    params.BallRadius,
			"cushion_height": params.CushionHeight,
			"sim_mode":       sim.Mode,
			"tick_seconds":   sim.TickSeconds,
			"history_stride": sim.HistoryStride,
			"cue_ball_start": physics.CueBallStart,
			"rack_apex":      physics.RackApex,
		})
	}
}
