package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"keyvault-backend-go/internal/config"
)

// CORSMiddleware allows the origins listed in CLIENT_URL (comma separated) to call
// the JSON API with credentials. It panics when no origin is configured; callers
// install it only when CLIENT_URL is set.
func CORSMiddleware(appConfig *config.Config) gin.HandlerFunc {
	origins := AllowedOrigins(appConfig)
	if len(origins) == 0 {
		panic("ClientURL for CORS is not configured")
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// AllowedOrigins splits CLIENT_URL into trimmed, non-empty origins.
func AllowedOrigins(appConfig *config.Config) []string {
	if appConfig == nil {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(appConfig.ClientURL, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
