package observability

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MetricsRoute serves the scrape endpoint of the process registry. A
// missing pipeline answers 503.
func MetricsRoute(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		if handler == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Metrics unavailable"})
			return
		}
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
