package pipeline

import (
	"fmt"

	"github.com/gin-gonic/gin"

	infraerrors "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/errors"
	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/config"
)

// Recovery turns a panic in any later stage or handler into a 500 response.
func Recovery(log logger.Logger) Stage {
	return Func(config.StageRecovery, func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("Panic recovered",
					logger.Any("error", err),
					logger.String("path", c.Request.URL.Path),
					logger.String("method", c.Request.Method),
					logger.String("client_ip", c.ClientIP()),
				)

				infraerrors.Abort(c, fmt.Errorf("panic: %v", err))
			}
		}()

		c.Next()
	})
}
