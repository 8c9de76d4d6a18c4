package pipeline

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/config"
)

// Logging reports the method and path of every request before dispatch.
// A failing log sink never interrupts the request.
type Logging struct {
	log logger.Logger
}

// NewLogging creates the logging stage.
func NewLogging(log logger.Logger) *Logging {
	return &Logging{log: log}
}

// Name implements Stage.
func (l *Logging) Name() string { return config.StageLogging }

// Handler implements Stage.
func (l *Logging) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		l.record(c)
		c.Next()
	}
}

func (l *Logging) record(c *gin.Context) {
	defer func() {
		_ = recover()
	}()

	path := c.Request.URL.Path
	fields := []logger.Field{
		logger.String("method", c.Request.Method),
		logger.String("path", path),
		logger.String("client_ip", c.ClientIP()),
	}
	if id := c.GetString(RequestIDKey); id != "" {
		fields = append(fields, logger.String("request_id", id))
	}
	if !strings.HasPrefix(path, "/health") {
		fields = append(fields, logger.String("user_agent", c.Request.UserAgent()))
	}

	l.log.Info("HTTP request", fields...)
}
