package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/playmatatu/billiards/internal/game"
)

// AreaRegistry is the slice of game.AreaManager the handlers need.
type AreaRegistry interface {
	CreateArea(ctx context.Context, obj game.MapObject) (*game.PoolGameArea, error)
	Area(ctx context.Context, id string) (*game.PoolGameArea, error)
	Acquire(ctx context.Context, id string) (*game.PoolGameArea, func(), error)
	AreaIDs() []string
}

// HistoryReader serves stored shot histories, newest first.
type HistoryReader interface {
	RecentHistory(ctx context.Context, areaID string, limit int) ([]game.ShotHistory, error)
}

// SeatIssuer mints the token a player presents when opening a websocket.
type SeatIssuer interface {
	Issue(areaID, playerID string) (string, time.Time, error)
}

const defaultHistoryLimit = 10

// CreateArea registers a pool table from a map editor rectangle.
func CreateArea(areas AreaRegistry, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var obj game.MapObject
		if err := c.ShouldBindJSON(&obj); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Expected a map object."})
			return
		}

		area, err := areas.CreateArea(c.Request.Context(), obj)
		if err != nil {
			abortWithGameError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"area": area.ToModel(),
			"box":  area.Box(),
		})
	}
}

// ListAreas returns the ids of every live area.
func ListAreas(areas AreaRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"areas": areas.AreaIDs()})
	}
}

// GetArea returns the current snapshot of an area.
func GetArea(areas AreaRegistry, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		area, err := areas.Area(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithGameError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"area":      area.ToModel(),
			"phase":     area.Phase(),
			"game_over": area.IsGameOver(),
		})
	}
}

// SeatAuthority issues seat tokens and checks the ones players bring back.
type SeatAuthority interface {
	SeatIssuer
	SeatVerifier
}

// IssueSeatToken hands out the token that binds a websocket to an area. A
// caller without a token gets a new player id. A caller presenting a valid
// token for any area keeps the player id in it, so only its holder can act
// as that player. Nobody is seated here; that happens with join_game.
func IssueSeatToken(areas AreaRegistry, seats SeatAuthority, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := uuid.NewString()
		if header := c.GetHeader("Authorization"); header != "" {
			claims, err := seats.Parse(header)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
			playerID = claims.PlayerID
		}

		area, err := areas.Area(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithGameError(c, logger, err)
			return
		}

		token, exp, err := seats.Issue(area.ID(), playerID)
		if err != nil {
			abortWithGameError(c, logger, err)
			return
		}
		logger.Info("seat token issued", zap.String("area", area.ID()), zap.String("player", playerID))
		c.JSON(http.StatusOK, gin.H{
			"player_id":  playerID,
			"token":      token,
			"expires_at": exp,
		})
	}
}

// GetShotHistory returns the most recent recorded shots of an area.
func GetShotHistory(areas AreaRegistry, history HistoryReader, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if history == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Shot history is not available"})
			return
		}
		area, err := areas.Area(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithGameError(c, logger, err)
			return
		}

		shots, err := history.RecentHistory(c.Request.Context(), area.ID(), parseLimit(c, defaultHistoryLimit))
		if err != nil {
			abortWithGameError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"shots": shots})
	}
}
