package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/playmatatu/billiards/internal/config"
)

// AllowedOrigins lists the browser origins the API answers. Development
// allows the local Vite server.
func AllowedOrigins(cfg *config.Config) []string {
	var origins []string
	if cfg.Environment == "development" {
		origins = []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		}
	}
	if cfg.FrontendURL != "" {
		origins = append(origins, strings.TrimRight(cfg.FrontendURL, "/"))
	}
	return origins
}

// CORSMiddleware returns a CORS middleware configured for the environment
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowOrigins: AllowedOrigins(cfg),
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Authorization",
			"Accept", "Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		// No frontend configured: open the API but never with credentials.
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	return cors.New(corsConfig)
}

// WebSocketOriginCheck validates websocket upgrade origins. Clients that send
// no Origin header are not browsers and are let through.
func WebSocketOriginCheck(cfg *config.Config) func(r *http.Request) bool {
	allowed := make(map[string]struct{})
	for _, o := range AllowedOrigins(cfg) {
		allowed[o] = struct{}{}
	}
	dev := cfg.Environment == "development"

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if dev && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
