package pipeline

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Django-Rwanda/django-rwanda-portal/internal/config"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/telemetry"
)

// Metrics records request counts and latency by route template.
func Metrics(p *telemetry.Provider) Stage {
	m := p.HTTP
	return Func(config.StageMetrics, func(c *gin.Context) {
		start := time.Now()
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}
