package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stylesync/internal/logger"
)

// Recovery converts panics into 500 responses instead of dropping the
// connection.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic recovered: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
