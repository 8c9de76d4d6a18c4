package pipeline

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/config"
)

const (
	// HeaderRequestID is read from the request and echoed on the response.
	HeaderRequestID = "X-Request-ID"
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "request_id"

	maxRequestIDLen = 128
)

// RequestID tags each request with an ID and stores a logger carrying that
// ID in the request context.
func RequestID(log logger.Logger) Stage {
	return Func(config.StageRequestID, func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = newRequestID()
		}

		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(HeaderRequestID, id)

		ctx := logger.WithContext(c.Request.Context(), log.With(logger.String("request_id", id)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	})
}

// newRequestID returns 32 hex characters.
func newRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
