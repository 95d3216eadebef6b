package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records HTTP request duration and count. Paths are the
// matched route template, so unknown URLs collapse into "unknown".
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := normalizePath(c.FullPath())
		method := c.Request.Method

		m.httpDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		m.httpTotal.WithLabelValues(method, path, status).Inc()
	}
}

func normalizePath(path string) string {
	if path == "" {
		return "unknown"
	}
	return path
}
