package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware recovers from panics in handlers, logs them with a stack trace
// and answers 500: JSON under /api, plain text for pages.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		panic("RecoveryMiddleware requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("stacktrace", string(debug.Stack())),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)

				// Prevents "multiple response.WriteHeader calls".
				if !c.Writer.Written() {
					if strings.HasPrefix(c.Request.URL.Path, "/api/") {
						c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
					} else {
						c.String(http.StatusInternalServerError, "Internal Server Error")
					}
				}
				c.Abort()
			}
		}()

		c.Next()
	}
}
