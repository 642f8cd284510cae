package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware returns a gin.HandlerFunc (middleware)
// that recovers from any panics within a handler, logs the panic with a stack trace,
// and returns a generic 500 Internal Server Error response to the client.
// This prevents the server from crashing due to unhandled panics.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		panic("RecoveryMiddleware requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				// debug.Stack() provides the stack trace of the panicking goroutine.
				logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("stacktrace", string(debug.Stack())),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)

				// This check prevents "multiple response.WriteHeader calls" errors.
				if !c.Writer.Written() {
					c.JSON(http.StatusInternalServerError, gin.H{
						"error":   "Internal Server Error",
						"message": "The server encountered an unexpected condition which prevented it from fulfilling the request.",
					})
				}

				c.Abort()
			}
		}()

		c.Next()
	}
}
