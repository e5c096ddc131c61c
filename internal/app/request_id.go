package app

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/WindriderQc/nodeTools/internal/logger"
)

// requestID tags every request for the access log, honoring an id an
// upstream proxy already assigned.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-Id", id)

		c.Next()

		logger.Info("request", map[string]any{
			"id":     id,
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		})
	}
}
