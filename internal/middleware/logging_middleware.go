package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger returns a gin.HandlerFunc (middleware) that logs requests using zap.
// It logs the incoming request method, path, status code, latency, client IP,
// query parameters, and any errors that occurred during the request processing.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		panic("RequestLogger requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		start := time.Now()

		// Make a copy of the path and query to ensure they are not modified by subsequent handlers.
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// Process request before logging response details like status code and latency.
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method

		logFields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", statusCode),
			zap.Duration("latency", latency),
			zap.String("client_ip", clientIP),
		}

		if query != "" {
			logFields = append(logFields, zap.String("query", query))
		}

		if len(c.Errors) > 0 {
			logFields = append(logFields, zap.String("gin_errors", c.Errors.String()))
		}

		// Log with different levels based on status code.
		if statusCode >= http.StatusInternalServerError {
			logger.Error("Incoming Request", logFields...)
		} else if statusCode >= http.StatusBadRequest {
			logger.Warn("Incoming Request", logFields...)
		} else {
			logger.Info("Incoming Request", logFields...)
		}
	}
}
