package observability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouteUnmatched labels requests that hit no registered admin route, keeping
// arbitrary paths out of metric labels.
const RouteUnmatched = "unmatched"

// adminTelemetry records every admin request against its route template and
// logs it on the node's admin component logger.
func adminTelemetry(node string) gin.HandlerFunc {
	logger := ComponentLogger(node, "admin")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = RouteUnmatched
		}
		status := c.Writer.Status()
		RecordAdminRequest(node, route, status, latency)

		logger.WithLevel(adminLogLevel(status)).
			Str("route", route).
			Int("status", status).
			Dur("latency", latency).
			Str("remote", c.ClientIP()).
			Msg("admin request")
	}
}

// adminLogLevel keeps polling of /health and /metrics out of info logs while
// surfacing rejected tokens and server faults.
func adminLogLevel(status int) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return zerolog.WarnLevel
	default:
		return zerolog.DebugLevel
	}
}
