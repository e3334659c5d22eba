package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ErlanBelekov/departments-api/internal/metrics"
	"github.com/gin-gonic/gin"
)

// unmatchedRoute labels requests no route matched, so probing clients cannot
// grow the label set.
const unmatchedRoute = "unmatched"

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// Metrics records latency and count per route template, after the error
// middleware has settled the final status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method
		if !knownMethods[method] {
			method = "OTHER"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	}
}
