package server

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obslogger "github.com/groundplan/groundplan/internal/observability/logger"
	"github.com/groundplan/groundplan/internal/observability/obscontext"
	"go.uber.org/zap"
)

// RequestContextMiddleware stamps every request with a request id and, when
// the route carries one, the project id, so downstream logs correlate.
func RequestContextMiddleware(genID *snowflake.Node) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = genID.Generate().String()
		}

		ctx := obscontext.WithRequestID(c.Request.Context(), requestID)
		if projectID := c.Param("project_id"); projectID != "" {
			ctx = obscontext.WithProjectID(ctx, projectID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func RequestLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		entry := obslogger.WithContext(c.Request.Context(), log)
		if c.Writer.Status() >= 500 {
			entry.Error("http.request", fields...)
			return
		}
		entry.Info("http.request", fields...)
	}
}
