package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/layer-3/walletauth/internal/slogx"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// RequestLogger attaches a request scoped logger to the request context and
// logs every completed request
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = ulid.Make().String()
		}
		c.Header(RequestIDHeader, reqID)

		logger := base.With(
			"req_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"remote_addr", c.ClientIP(),
		)
		c.Request = c.Request.WithContext(slogx.WithContext(c.Request.Context(), logger))

		c.Next()

		// Handlers may have enriched the logger
		slogx.FromContext(c.Request.Context()).Info("request completed",
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Recovery turns panics into a logged 500
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slogx.FromContext(c.Request.Context()).Error("panic recovered", "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}
