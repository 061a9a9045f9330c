package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookinfo/internal/auth"
	"github.com/mrlokans/bookinfo/internal/logger"
	"github.com/mrlokans/bookinfo/internal/metrics"
)

// RequestLogger logs every request through the shared zap logger once it
// has been served.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("duration", time.Since(start)),
		}
		if auth.IsAuthenticated(c) {
			fields = append(fields, zap.String("user_id", GetUserID(c)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.L.Error("Request failed", fields...)
		case status >= 400:
			logger.L.Warn("Request rejected", fields...)
		default:
			logger.L.Debug("Request served", fields...)
		}
	}
}

// RequestMetrics counts requests by method, route template and status.
func RequestMetrics(recorder metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			// Unmatched paths would otherwise explode the label space.
			route = "unmatched"
		}
		recorder.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status())
	}
}
