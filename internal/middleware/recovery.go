package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

// Recovery turns a handler panic into a 500 with the standard error envelope
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error("Panic recovered",
				zap.String("panic", fmt.Sprint(rec)),
				zap.String("route", c.FullPath()),
				zap.String("method", c.Request.Method),
				zap.String("request_id", c.GetString("request_id")),
				zap.Stack("stacktrace"),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.AbortWithError(c, http.StatusInternalServerError, response.ErrCodeInternal, "Internal server error")
		}()

		c.Next()
	}
}
