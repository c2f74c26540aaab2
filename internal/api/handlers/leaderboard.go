package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/playmatatu/billiards/internal/leaderboard"
)

// Leaderboard reads win counts.
type Leaderboard interface {
	Top(ctx context.Context, limit int) ([]leaderboard.Entry, error)
	Player(ctx context.Context, playerID string) (leaderboard.Entry, error)
}

// GetLeaderboard returns the players with the most wins.
func GetLeaderboard(board Leaderboard, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if board == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Leaderboard is disabled"})
			return
		}
		entries, err := board.Top(c.Request.Context(), parseLimit(c, leaderboard.DefaultLimit))
		if err != nil {
			logger.Error("failed to load leaderboard", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leaderboard"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

// GetPlayerStats returns one player's record.
func GetPlayerStats(board Leaderboard, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if board == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Leaderboard is disabled"})
			return
		}
		entry, err := board.Player(c.Request.Context(), c.Param("player"))
		if errors.Is(err, leaderboard.ErrPlayerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
			return
		}
		if err != nil {
			logger.Error("failed to load player stats", zap.String("player", c.Param("player")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load player stats"})
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}
