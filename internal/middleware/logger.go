package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/afnanahmadtariq/collab-pm/internal/auth"
	"github.com/afnanahmadtariq/collab-pm/internal/metrics"
)

// Logger writes one access log line per request. Probes and scrapes go to debug.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		level, msg := zapcore.InfoLevel, "Request completed"
		switch {
		case status >= 500:
			level, msg = zapcore.ErrorLevel, "Server error"
		case status >= 400:
			level, msg = zapcore.WarnLevel, "Client error"
		case metrics.ShouldSkipEndpoint(c.Request.URL.Path):
			level = zapcore.DebugLevel
		}
		ce := logger.Check(level, msg)
		if ce == nil {
			return
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.Int("bytes", c.Writer.Size()),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		}
		if userID, ok := auth.UserIDFromContext(c.Request.Context()); ok {
			fields = append(fields, zap.Stringer("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		ce.Write(fields...)
	}
}
