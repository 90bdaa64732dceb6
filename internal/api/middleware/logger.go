package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"stylesync/internal/logger"
)

// Logger logs every request with method, path, status and latency.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("%s %s %d %s",
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start),
		)
	}
}
