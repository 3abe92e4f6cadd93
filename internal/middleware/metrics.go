package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soiree-app/soiree/pkg/metrics"
)

// Metrics observes per-route request latency. The route template is used as
// the path label so media tokens and album ids do not explode cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.APILatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
