package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 5 * time.Second

// GinHandler runs every check and answers 503 if any fails. info is
// merged into the response body.
func (c *Checker) GinHandler(info gin.H) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), checkTimeout)
		defer cancel()

		status, results := c.Check(checkCtx)

		response := gin.H{
			"status":    status,
			"checks":    results,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		for k, v := range info {
			response[k] = v
		}

		statusCode := http.StatusOK
		if status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}

		ctx.JSON(statusCode, response)
	}
}

// GinLivenessHandler always reports the process as alive.
func GinLivenessHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status": "alive",
		})
	}
}
