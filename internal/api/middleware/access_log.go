package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/MishraAmit1/gajpatiadmin/internal/logging"
)

// RequestID tags every console request with a short identifier, propagated
// through both the gin context and the request context so SDK logs line up
// with access logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = logging.NewRequestID()
		}
		logging.SetGinRequestID(c, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// AccessLog records method, path, status and latency for each console
// request. Enabled through the request-log configuration key.
func AccessLog(enabled func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if enabled != nil && !enabled() {
			c.Next()
			return
		}

		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		entry := log.WithFields(log.Fields{
			"request_id": logging.GinRequestID(c),
			"status":     c.Writer.Status(),
		})
		entry.Infof("%s %s %s", c.Request.Method, path, time.Since(start).Round(time.Millisecond))
	}
}
