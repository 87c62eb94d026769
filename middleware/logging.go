package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BanhTuanKiet/ProjectManagement-sub001/utils"
)

// Logger logs each request with its status and latency.
func Logger(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}
