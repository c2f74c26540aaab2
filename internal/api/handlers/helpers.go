package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/playmatatu/billiards/internal/game"
)

// parseLimit reads the limit query parameter, falling back to def when it is
// missing or not a positive integer.
func parseLimit(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// abortWithGameError maps game sentinels to HTTP status codes. Anything
// unrecognised is logged and reported as a 500.
func abortWithGameError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, game.ErrAreaNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Area not found"})
	case errors.Is(err, game.ErrAreaExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Area already exists"})
	case errors.Is(err, game.ErrMalformedArea):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
