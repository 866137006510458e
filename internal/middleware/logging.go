package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// RequestLogger writes one structured line per request. Handler errors
// attached with c.Error are included.
func RequestLogger(l zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var evt *zerolog.Event
		switch {
		case status >= 500:
			evt = l.Error()
		case status >= 400:
			evt = l.Warn()
		default:
			evt = l.Info()
		}

		evt = evt.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP())

		if id, ok := c.Get("user_id"); ok {
			if uid, ok := id.(uuid.UUID); ok {
				evt = evt.Str("user_id", uid.String())
			}
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}
		evt.Msg("request")
	}
}
