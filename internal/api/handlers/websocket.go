package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/playmatatu/billiards/internal/auth"
	"github.com/playmatatu/billiards/internal/game"
)

// SocketServer attaches an upgraded connection to an area. It calls release
// once the connection is gone.
type SocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, area *game.PoolGameArea, playerID string, release func())
}

// SeatVerifier checks a seat token.
type SeatVerifier interface {
	Parse(token string) (*auth.SeatClaims, error)
}

// HandleAreaWebSocket handles real-time play on an area. Without a token the
// connection is a spectator.
func HandleAreaWebSocket(areas AreaRegistry, seats SeatVerifier, hub SocketServer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		area, release, err := areas.Acquire(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithGameError(c, logger, err)
			return
		}
		served := false
		defer func() {
			if !served {
				release()
			}
		}()

		token := c.Query("token")
		if token == "" {
			token = c.GetHeader("Authorization")
		}

		var playerID string
		if token != "" {
			claims, err := seats.Parse(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
			if claims.AreaID != area.ID() {
				c.JSON(http.StatusForbidden, gin.H{"error": "Token is for a different area"})
				return
			}
			playerID = claims.PlayerID
		}

		served = true
		hub.ServeWS(c.Writer, c.Request, area, playerID, release)
	}
}
