package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the browser client at allowedOrigin ("*" or empty for any) and
// answers preflight requests. Requests from other origins are rejected with 403.
func CORS(allowedOrigin string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        10 * time.Minute,
	}
	if allowedOrigin == "" || allowedOrigin == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{allowedOrigin}
	}
	return cors.New(cfg)
}
